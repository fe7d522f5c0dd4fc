// Package config loads corpus engine configuration from defaults, an
// optional YAML file, and environment variable overrides, in the same
// layering order as the teacher service's configuration loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP edge (spec §6 External Interfaces).
type ServerConfig struct {
	Host              string `json:"host" yaml:"host" env:"SERVER_HOST"`
	Port              int    `json:"port" yaml:"port" env:"SERVER_PORT"`
	RequestTimeoutS   int    `json:"request_timeout_s" yaml:"request_timeout_s" env:"SERVER_REQUEST_TIMEOUT_S"`
	MaxBodyBytes      int64  `json:"max_body_bytes" yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES"`
	RateLimitRPS      int    `json:"rate_limit_rps" yaml:"rate_limit_rps" env:"SERVER_RATE_LIMIT_RPS"`
	RateLimitBurst    int    `json:"rate_limit_burst" yaml:"rate_limit_burst" env:"SERVER_RATE_LIMIT_BURST"`
}

// StorageConfig controls the on-disk layout (spec §6).
type StorageConfig struct {
	CorpusPath     string   `json:"corpus_path" yaml:"corpus_path" env:"CORPUS_PATH"`
	AudioDir       string   `json:"audio_dir" yaml:"audio_dir" env:"AUDIO_DIR"`
	ExportsDir     string   `json:"exports_dir" yaml:"exports_dir" env:"EXPORTS_DIR"`
	MaxUploadBytes int64    `json:"max_upload_bytes" yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	AllowedAudio   []string `json:"allowed_audio_ext" yaml:"allowed_audio_ext"`
}

// PolicyConfig controls retention (spec §4.3).
type PolicyConfig struct {
	RetentionDays int `json:"retention_days" yaml:"retention_days" env:"RETENTION_DAYS"`
}

// JobConfig controls the job fabric (spec §4.7).
type JobConfig struct {
	Mode               string `json:"job_mode" yaml:"job_mode" env:"JOB_MODE"`
	BrokerURL          string `json:"broker_url" yaml:"broker_url" env:"BROKER_URL"`
	WorkerConcurrency  int    `json:"worker_concurrency" yaml:"worker_concurrency" env:"WORKER_CONCURRENCY"`
	QueueDepthBackoff  int    `json:"queue_depth_backoff" yaml:"queue_depth_backoff" env:"QUEUE_DEPTH_BACKOFF"`
	MaxAttempts        int    `json:"max_attempts" yaml:"max_attempts" env:"JOB_MAX_ATTEMPTS"`
	DefaultJobTimeoutS int    `json:"default_job_timeout_s" yaml:"default_job_timeout_s" env:"JOB_DEFAULT_TIMEOUT_S"`
}

// LLMConfig controls the LLM router (spec §4.8).
type LLMConfig struct {
	DefaultModel string   `json:"llm_default_model" yaml:"llm_default_model" env:"LLM_DEFAULT_MODEL"`
	Providers    []string `json:"llm_providers" yaml:"llm_providers"`
	EmbeddingDim int      `json:"embedding_dim" yaml:"embedding_dim" env:"EMBEDDING_DIM"`
	CacheSize    int      `json:"embedding_cache_size" yaml:"embedding_cache_size" env:"EMBEDDING_CACHE_SIZE"`
}

// ExportConfig controls the export pipeline (spec §4.9).
type ExportConfig struct {
	SigningKey string `json:"export_signing_key" yaml:"export_signing_key" env:"EXPORT_SIGNING_KEY"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" env:"LOG_LEVEL"`
	Format     string `json:"format" yaml:"format" env:"LOG_FORMAT"`
	Output     string `json:"output" yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `json:"file_prefix" yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// Config is the top-level configuration structure enumerating every option
// named in spec.md §6.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Policy  PolicyConfig  `json:"policy" yaml:"policy"`
	Jobs    JobConfig     `json:"jobs" yaml:"jobs"`
	LLM     LLMConfig     `json:"llm" yaml:"llm"`
	Export  ExportConfig  `json:"export" yaml:"export"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// New returns a configuration populated with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			RequestTimeoutS: 30,
			MaxBodyBytes:    8 << 20,
			RateLimitRPS:    20,
			RateLimitBurst:  40,
		},
		Storage: StorageConfig{
			CorpusPath:     "storage/corpus.ndjson",
			AudioDir:       "storage/audio",
			ExportsDir:     "storage/exports",
			MaxUploadBytes: 50 * 1024 * 1024,
			AllowedAudio:   []string{"wav", "mp3", "m4a", "flac"},
		},
		Policy: PolicyConfig{
			RetentionDays: 90,
		},
		Jobs: JobConfig{
			Mode:               "native",
			WorkerConcurrency:  0, // 0 means auto-size from host CPU count
			QueueDepthBackoff:  1000,
			MaxAttempts:        5,
			DefaultJobTimeoutS: 300,
		},
		LLM: LLMConfig{
			DefaultModel: "claude",
			EmbeddingDim: 768,
			CacheSize:    4096,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			FilePrefix: "corpus-engine",
		},
	}
}

// Load loads configuration from file (if present) and environment
// variables, in the same order as the teacher's Load: defaults, then YAML
// file, then env-tagged overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("configs/config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode returns an error when no tagged fields are present in the
		// environment; treat that case as "no overrides" so local runs work
		// without exporting vars.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

// LoadFile reads configuration from a YAML file, applying the same
// defaults and normalization as Load.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return nil
}

// normalize fills in derived/clamped fields after all layers have been
// applied.
func (c *Config) normalize() {
	if c == nil {
		return
	}
	if c.Jobs.Mode == "" {
		c.Jobs.Mode = "native"
	}
	if c.Policy.RetentionDays <= 0 {
		c.Policy.RetentionDays = 90
	}
	if c.LLM.EmbeddingDim <= 0 {
		c.LLM.EmbeddingDim = 768
	}
	if len(c.Storage.AllowedAudio) == 0 {
		c.Storage.AllowedAudio = []string{"wav", "mp3", "m4a", "flac"}
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 8 << 20
	}
	if c.Server.RateLimitRPS <= 0 {
		c.Server.RateLimitRPS = 20
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 40
	}
}

// IsDistributed reports whether the job fabric should run in distributed
// (broker-backed) mode.
func (j JobConfig) IsDistributed() bool {
	return strings.EqualFold(j.Mode, "distributed") && strings.TrimSpace(j.BrokerURL) != ""
}
