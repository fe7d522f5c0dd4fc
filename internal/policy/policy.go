// Package policy loads the declarative policy document that gates every
// service-level write: retention, PII filtering on export, allowed egress
// destinations, and whether ownership verification is required. It is
// loaded once and cached behind a memoized, thread-safe accessor, the same
// double-checked-locking idiom the teacher uses for its process-wide
// GetProbeManager singleton, generalized here with sync.Once plus an
// atomic.Pointer so a test can force a reload via Reset.
package policy

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// PIIConfig controls PII redaction applied to export bundles.
type PIIConfig struct {
	FilterOnExport bool     `yaml:"filter_on_export"`
	Patterns       []string `yaml:"patterns"`
}

// EgressConfig controls where exports and LLM calls are allowed to go.
type EgressConfig struct {
	AllowedDestinations []string `yaml:"allowed_destinations"`
}

// Policy is the declarative policy document described by spec.md §4.3.
type Policy struct {
	AppendOnly    bool         `yaml:"append_only"`
	RetentionDays int          `yaml:"retention_days"`
	PII           PIIConfig    `yaml:"pii"`
	Egress        EgressConfig `yaml:"egress"`
	Ownership     struct {
		Required bool `yaml:"required"`
	} `yaml:"ownership"`
	Version string `yaml:"-"`
}

// Default returns the policy document's baked-in defaults, used when no
// policy file is configured.
func Default() *Policy {
	return &Policy{
		AppendOnly:    true,
		RetentionDays: 90,
		PII: PIIConfig{
			FilterOnExport: true,
			Patterns:       []string{"email", "phone", "ssn", "url"},
		},
		Egress: EgressConfig{
			AllowedDestinations: []string{"local"},
		},
		Ownership: struct {
			Required bool `yaml:"required"`
		}{Required: true},
		Version: "v1",
	}
}

// Load reads a policy document from path, falling back to Default() if
// path is empty or the file does not exist.
func Load(path string) (*Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("policy: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("policy: parse %q: %w", path, err)
	}
	if p.Version == "" {
		p.Version = "v1"
	}
	return p, nil
}

var (
	once    sync.Once
	current atomic.Pointer[Policy]
	loadErr error
	loadMu  sync.Mutex
)

// path is set by Configure before the first Current() call; it defaults to
// "configs/policy.yaml".
var path = "configs/policy.yaml"

// Configure sets the path Current loads from on its first call. Must be
// called before the first Current() in the process, typically from main.
func Configure(p string) {
	loadMu.Lock()
	defer loadMu.Unlock()
	path = p
}

// Current returns the process-wide memoized Policy, loading it on first
// use. Safe for concurrent use from multiple goroutines.
func Current() (*Policy, error) {
	once.Do(func() {
		p, err := Load(path)
		if err != nil {
			loadErr = err
			return
		}
		current.Store(p)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return current.Load(), nil
}

// Reset clears the memoized policy so the next Current() call reloads from
// disk. Exposed for tests only.
func Reset() {
	loadMu.Lock()
	defer loadMu.Unlock()
	once = sync.Once{}
	loadErr = nil
	current.Store(nil)
}
