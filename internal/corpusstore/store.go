// Package corpusstore implements C1, the single hierarchical corpus file:
// a hash-chained, append-only sequence of JSON records partitioned into
// named groups (interactions, embeddings, sessions, audio_artifacts, jobs,
// audit_events), plus a sidecar monotonic length log used to detect
// offline truncation. It is grounded on two teacher techniques: the
// mutex-guarded persistence backend in infrastructure/state (lock
// discipline, Config/DefaultConfig idiom) and the pack's hash-chained
// audit logger (physical append format, chain verification, genesis hash).
package corpusstore

import (
	"bufio"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/clinicore/corpusengine/internal/corpuscrypto"
)

// Known groups a corpus file may contain. Repositories write to these;
// Store itself only enforces that a group is one of these before append.
const (
	GroupInteractions  = "interactions"
	GroupEmbeddings    = "embeddings"
	GroupSessions      = "sessions"
	GroupAudioArtifact = "audio_artifacts"
	GroupJobs          = "jobs"
	GroupExports       = "exports"
)

var knownGroups = map[string]bool{
	MetaGroup:          true,
	AuditGroup:         true,
	GroupInteractions:  true,
	GroupEmbeddings:    true,
	GroupSessions:      true,
	GroupAudioArtifact: true,
	GroupJobs:          true,
	GroupExports:       true,
}

// Config controls where a Store's files live.
type Config struct {
	CorpusPath     string // e.g. storage/corpus.ndjson
	LengthLogPath  string // defaults to CorpusPath + ".lengths.log" when empty
	OwnerIdentInfo string // not read by Store; the owner identity is a plain SHA-256 of credential and salt
}

// DefaultConfig mirrors the spec's default on-disk layout.
func DefaultConfig(corpusPath string) Config {
	return Config{
		CorpusPath:     corpusPath,
		LengthLogPath:  corpusPath + ".lengths.log",
		OwnerIdentInfo: "corpus-owner-identity/v1",
	}
}

// Store is a handle on one corpus file. Open returns an already-validated
// Store; use Init to create a fresh one. Store is safe for concurrent use:
// appends are serialized by a single exclusive writer lock, reads proceed
// under a shared lock and never block each other.
type Store struct {
	cfg Config

	mu       sync.RWMutex
	file     *os.File
	lengths  *lengthLog
	prevHash string
	seq      int64

	corpusID      string
	schemaVersion string
	ownerIdentity string // hex SHA-256 of owner credential + salt

	groupLengths map[string]int64
	records      map[string][]Record // in-memory index, rebuilt by replay

	readOnly bool // true once MutationDetected trips; store refuses further writes
}

// ValidationReport is returned by Validate.
type ValidationReport struct {
	SchemaVersion string
	GroupLengths  map[string]int64
	OK            bool
	Problems      []string
}

// Open opens an existing corpus file, replaying it to rebuild in-memory
// state, quarantining any incomplete trailing record left by a crash, and
// checking the sidecar length log for evidence of offline truncation. It
// returns ErrNotInitialized if the file does not contain a meta record.
func Open(cfg Config) (*Store, error) {
	if cfg.LengthLogPath == "" {
		cfg.LengthLogPath = cfg.CorpusPath + ".lengths.log"
	}

	replayed, err := replayAndSalvage(cfg.CorpusPath)
	if err != nil {
		return nil, err
	}

	s := &Store{
		cfg:          cfg,
		prevHash:     replayed.prevHash,
		seq:          replayed.seq,
		groupLengths: replayed.groupLengths,
		records:      replayed.records,
	}

	if meta, ok := replayed.records[MetaGroup]; ok && len(meta) > 0 {
		var m metaPayload
		if err := json.Unmarshal(meta[0].Payload, &m); err != nil {
			return nil, fmt.Errorf("corpusstore: decode meta record: %w", err)
		}
		s.corpusID = m.CorpusID
		s.schemaVersion = m.SchemaVersion
		s.ownerIdentity = m.OwnerIdentity
	} else {
		return nil, ErrNotInitialized
	}

	if s.schemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: file has %q, engine expects %q", ErrSchemaMismatch, s.schemaVersion, SchemaVersion)
	}

	f, err := os.OpenFile(cfg.CorpusPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("corpusstore: open for append %q: %w", cfg.CorpusPath, err)
	}
	s.file = f

	ll, err := openLengthLog(cfg.LengthLogPath)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.lengths = ll

	// A shrunk group versus the sidecar length log means the corpus file
	// was truncated behind this process's back. Per contract this is
	// fatal to further mutation, not to the process: return the usable
	// store plus the detection error so the caller can record an audit
	// event (the store is not yet read-only, so that one append still
	// succeeds) before calling TripReadOnly to close the store for
	// writes for the remainder of the process.
	if lenErr := s.checkLengthLog(); lenErr != nil {
		return s, fmt.Errorf("%w: %v", ErrMutationDetected, lenErr)
	}

	return s, nil
}

// TripReadOnly closes the store to further writes for the remainder of the
// process. Callers use this after recording the audit event that explains
// why: once tripped, even that append would itself fail with ErrReadOnly.
func (s *Store) TripReadOnly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = true
}

// metaPayload is the _meta group's single record payload.
type metaPayload struct {
	CorpusID      string `json:"corpus_id"`
	SchemaVersion string `json:"schema_version"`
	OwnerIdentity string `json:"owner_identity"`
	CreatedAt     string `json:"created_at"`
}

// Init creates a fresh corpus file for (ownerCredential, salt), writes the
// meta record, and returns the ready-to-use Store. Callers are expected to
// emit CORPUS_INITIALIZED to the audit log immediately afterward
// (service.InitializeCorpus wraps this call for exactly that purpose). Init fails with
// ErrAlreadyInitialized if a valid corpus file already exists at the
// configured path.
func Init(cfg Config, corpusID, ownerCredential, salt string) (*Store, error) {
	if cfg.LengthLogPath == "" {
		cfg.LengthLogPath = cfg.CorpusPath + ".lengths.log"
	}

	if _, err := os.Stat(cfg.CorpusPath); err == nil {
		if _, openErr := Open(cfg); openErr == nil {
			return nil, ErrAlreadyInitialized
		}
		// File exists but failed validation (e.g. corrupt); refuse to
		// silently overwrite a human operator's data.
		return nil, fmt.Errorf("corpusstore: refusing to init over existing file at %q", cfg.CorpusPath)
	}

	f, err := os.OpenFile(cfg.CorpusPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("corpusstore: create %q: %w", cfg.CorpusPath, err)
	}
	ll, err := openLengthLog(cfg.LengthLogPath)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	ownerIdentity := hex.EncodeToString(corpuscrypto.Hash256([]byte(ownerCredential + "\x00" + salt)))

	s := &Store{
		cfg:           cfg,
		file:          f,
		lengths:       ll,
		prevHash:      genesisHash,
		corpusID:      corpusID,
		schemaVersion: SchemaVersion,
		ownerIdentity: ownerIdentity,
		groupLengths:  map[string]int64{},
		records:       map[string][]Record{},
	}

	metaBytes, err := json.Marshal(metaPayload{
		CorpusID:      corpusID,
		SchemaVersion: SchemaVersion,
		OwnerIdentity: ownerIdentity,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("corpusstore: marshal meta payload: %w", err)
	}

	if _, err := s.appendLocked(MetaGroup, metaBytes, corpusID+"_meta"); err != nil {
		_ = f.Close()
		return nil, err
	}

	return s, nil
}

// CorpusID returns the corpus identifier assigned at Init.
func (s *Store) CorpusID() string { return s.corpusID }

// OwnerIdentity returns the hex-encoded owner identity hash recorded at init.
func (s *Store) OwnerIdentity() string { return s.ownerIdentity }

// IsReadOnly reports whether mutation detection has tripped the store into
// its permanent read-only state, for callers (the HTTP edge's health
// check) that need to surface this without attempting a write.
func (s *Store) IsReadOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readOnly
}

// Append atomically extends group by one record and returns the assigned
// record id. Fails with ErrUnknownGroup, ErrReadOnly (after mutation
// detection), or ErrIntegrityError.
func (s *Store) Append(group string, recordID string, payload json.RawMessage) (string, error) {
	if !knownGroups[group] {
		return "", fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return "", ErrReadOnly
	}
	return s.appendLocked(group, payload, recordID)
}

// appendLocked performs the write under s.mu already held.
func (s *Store) appendLocked(group string, payload json.RawMessage, recordID string) (string, error) {
	seq := s.seq + 1
	ts := time.Now().UTC()
	prevHash := s.prevHash

	content := recordContent{
		Seq:       seq,
		Group:     group,
		RecordID:  recordID,
		Timestamp: ts,
		Payload:   payload,
		PrevHash:  prevHash,
	}
	eventHash := hashRecordContent(content)

	rec := record{
		Seq:       seq,
		Group:     group,
		RecordID:  recordID,
		Timestamp: ts,
		Payload:   payload,
		PrevHash:  prevHash,
		EventHash: eventHash,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: marshal record: %v", ErrIntegrityError, err)
	}
	line = append(line, '\n')

	if _, err := s.file.Write(line); err != nil {
		return "", fmt.Errorf("%w: write record: %v", ErrIntegrityError, err)
	}
	if err := s.file.Sync(); err != nil {
		return "", fmt.Errorf("%w: sync record: %v", ErrIntegrityError, err)
	}

	s.seq = seq
	s.prevHash = eventHash
	s.groupLengths[group]++
	s.records[group] = append(s.records[group], Record{
		Seq: seq, Group: group, RecordID: recordID, Timestamp: ts, Payload: payload,
	})

	if s.lengths != nil {
		if err := s.lengths.append(group, s.groupLengths[group]); err != nil {
			return "", fmt.Errorf("%w: %v", ErrIntegrityError, err)
		}
	}

	return recordID, nil
}

// Selector bounds a Read to a window of a group's records.
type Selector struct {
	Offset int
	Limit  int // 0 means unbounded
}

// Read performs a random-access read of group, never exposing the writer.
func (s *Store) Read(group string, sel Selector) ([]Record, error) {
	if !knownGroups[group] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.records[group]
	start := sel.Offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if sel.Limit > 0 && start+sel.Limit < end {
		end = start + sel.Limit
	}

	out := make([]Record, end-start)
	copy(out, all[start:end])
	return out, nil
}

// GroupLength returns the current length of group, used as a consistency
// marker when an export resolves selectors against a point-in-time snapshot.
func (s *Store) GroupLength(group string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupLengths[group]
}

// VerifyOwnership recomputes the owner identity hash from credential+salt
// and compares it to the one recorded at init, in constant time.
func (s *Store) VerifyOwnership(ownerCredential, salt string) bool {
	s.mu.RLock()
	want := s.ownerIdentity
	s.mu.RUnlock()

	got := hex.EncodeToString(corpuscrypto.Hash256([]byte(ownerCredential + "\x00" + salt)))
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// Validate confirms the schema version is known and that every group's
// length matches (or exceeds) what the sidecar length log last recorded.
// Any shrinkage versus the length log is reported as a fatal problem and
// trips the store into read-only mode.
func (s *Store) Validate() (ValidationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := ValidationReport{
		SchemaVersion: s.schemaVersion,
		GroupLengths:  make(map[string]int64, len(s.groupLengths)),
		OK:            true,
	}
	for g, n := range s.groupLengths {
		report.GroupLengths[g] = n
	}

	if s.schemaVersion != SchemaVersion {
		report.OK = false
		report.Problems = append(report.Problems, fmt.Sprintf("unknown schema version %q", s.schemaVersion))
	}

	if err := s.checkLengthLogLocked(); err != nil {
		report.OK = false
		report.Problems = append(report.Problems, err.Error())
		s.readOnly = true
		return report, fmt.Errorf("%w: %v", ErrMutationDetected, err)
	}

	return report, nil
}

func (s *Store) checkLengthLog() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkLengthLogLocked()
}

func (s *Store) checkLengthLogLocked() error {
	recorded, err := readRecordedLengths(s.cfg.LengthLogPath)
	if err != nil {
		return err
	}
	for group, last := range recorded {
		if s.groupLengths[group] < last {
			return fmt.Errorf("group %q shrank from %d to %d", group, last, s.groupLengths[group])
		}
	}
	return nil
}

// Close releases the store's file handles.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	if s.lengths != nil {
		if err := s.lengths.close(); err != nil {
			firstErr = err
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// replayState is the outcome of scanning a corpus file from the start.
type replayState struct {
	prevHash     string
	seq          int64
	groupLengths map[string]int64
	records      map[string][]Record
}

// replayAndSalvage scans the corpus file at path, verifying the hash chain
// record by record. If it encounters a malformed line or a broken chain
// link — the signature of a crash mid-append — everything from that byte
// offset onward is moved into a sidecar ".salvage-<timestamp>" file and the
// corpus file is truncated to the last good record, never silently
// discarded.
func replayAndSalvage(path string) (replayState, error) {
	state := replayState{
		prevHash:     genesisHash,
		groupLengths: map[string]int64{},
		records:      map[string][]Record{},
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("corpusstore: open %q: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var offset int64
	for {
		lineStart := offset
		line, readErr := reader.ReadBytes('\n')
		offset += int64(len(line))

		trimmed := line
		if n := len(trimmed); n > 0 && trimmed[n-1] == '\n' {
			trimmed = trimmed[:n-1]
		}

		if len(trimmed) == 0 {
			if readErr != nil {
				break
			}
			continue
		}

		var rec record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			if err := quarantineTail(path, lineStart); err != nil {
				return state, err
			}
			break
		}

		content := recordContent{
			Seq: rec.Seq, Group: rec.Group, RecordID: rec.RecordID,
			Timestamp: rec.Timestamp, Payload: rec.Payload, PrevHash: rec.PrevHash,
		}
		if hashRecordContent(content) != rec.EventHash || rec.PrevHash != state.prevHash {
			if err := quarantineTail(path, lineStart); err != nil {
				return state, err
			}
			break
		}

		state.prevHash = rec.EventHash
		state.seq = rec.Seq
		state.groupLengths[rec.Group]++
		state.records[rec.Group] = append(state.records[rec.Group], Record{
			Seq: rec.Seq, Group: rec.Group, RecordID: rec.RecordID,
			Timestamp: rec.Timestamp, Payload: rec.Payload,
		})

		if readErr != nil {
			break
		}
	}

	for g := range state.records {
		sort.SliceStable(state.records[g], func(i, j int) bool {
			return state.records[g][i].Seq < state.records[g][j].Seq
		})
	}

	return state, nil
}

// quarantineTail copies everything in the file at path from offset to EOF
// into "<path>.salvage-<unixnano>" and truncates the live file to offset,
// so a crash mid-append never leaves a malformed trailing record in the
// authoritative corpus file.
func quarantineTail(path string, offset int64) error {
	whole, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("corpusstore: read for salvage: %w", err)
	}
	if int64(len(whole)) <= offset {
		return nil
	}
	salvagePath := fmt.Sprintf("%s.salvage-%d", path, time.Now().UTC().UnixNano())
	if err := os.WriteFile(salvagePath, whole[offset:], 0o600); err != nil {
		return fmt.Errorf("corpusstore: write salvage file %q: %w", salvagePath, err)
	}
	if err := os.Truncate(path, offset); err != nil {
		return fmt.Errorf("corpusstore: truncate %q to %d: %w", path, offset, err)
	}
	return nil
}
