package repository

import "time"

// Interaction is one append-only prompt/response exchange. A correction is
// recorded as a new Interaction with Metadata["correction_of"] set to the
// prior interaction's id — interactions are never edited in place.
type Interaction struct {
	InteractionID string                 `json:"interaction_id"`
	SessionID     string                 `json:"session_id"`
	Prompt        string                 `json:"prompt"`
	Response      string                 `json:"response"`
	Model         string                 `json:"model"`
	Tokens        int                    `json:"tokens"`
	Timestamp     time.Time              `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Embedding is a fixed-width vector for one interaction, zero-padded to
// EmbeddingDim when the source model produces a smaller vector.
type Embedding struct {
	InteractionID string    `json:"interaction_id"`
	Vector        []float32 `json:"vector"`
	Model         string    `json:"model"`
	Timestamp     time.Time `json:"timestamp"`
}

// SessionState enumerates the forward-only Session state machine.
type SessionState string

const (
	SessionOpen       SessionState = "open"
	SessionFinalized  SessionState = "finalized"
	SessionArchived   SessionState = "archived"
)

// Session groups interactions under one clinical encounter.
type Session struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	CreatedAt time.Time              `json:"created_at"`
	State     SessionState           `json:"state"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AudioArtifact references content-addressed audio bytes on disk.
type AudioArtifact struct {
	ArtifactID string    `json:"artifact_id"`
	SessionID  string    `json:"session_id"`
	BytesRef   string    `json:"bytes_ref"`
	SHA256     string    `json:"sha256"`
	Mime       string    `json:"mime"`
	DurationMS int64     `json:"duration_ms"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// JobKind enumerates the work a Job performs.
type JobKind string

const (
	JobTranscribe JobKind = "transcribe"
	JobDiarize    JobKind = "diarize"
	JobEmbed      JobKind = "embed"
	JobExport     JobKind = "export"
)

// JobStatus enumerates the forward-only Job state machine. The current
// status is always the latest status-transition event for a job_id — Job
// itself is a read projection over those events, not a mutable row.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one status-transition event in a job's append-only history.
type Job struct {
	JobID      string    `json:"job_id"`
	Kind       JobKind   `json:"kind"`
	InputRef   string    `json:"input_ref"`
	Status     JobStatus `json:"status"`
	Attempts   int       `json:"attempts"`
	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
	ResultRef  string    `json:"result_ref,omitempty"`
}

// ExportArtifact is one file within an export bundle.
type ExportArtifact struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Export is the manifest-level record of a created export bundle.
type Export struct {
	ExportID  string            `json:"export_id"`
	Targets   []string          `json:"targets"`
	Artifacts []ExportArtifact  `json:"artifacts"`
	Manifest  map[string]any    `json:"manifest"`
	Signature string            `json:"signature"`
	CreatedAt time.Time         `json:"created_at"`
	DeletedAt *time.Time        `json:"deleted_at,omitempty"`
}
