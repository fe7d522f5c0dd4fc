// Package container is the process-wide DI container: one Container
// holding the corpus store, every repository and the audit log, installed
// with Configure, read back through a mutex-guarded Global, and resettable
// for tests. Policy is not held here; it has its own accessor in
// internal/policy. Grounded on the teacher's process-wide singleton idiom
// (infrastructure/service.GetProbeManager, system/runtime's global loader)
// generalized from "one global" to "one registry of named globals."
package container

import (
	"fmt"
	"sync"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/corpusstore"
	"github.com/clinicore/corpusengine/internal/repository"
)

// Container holds every process-wide singleton a service needs. Unlike a
// package-level global, it is an explicit value so tests can construct
// independent instances instead of fighting shared global state.
type Container struct {
	mu sync.RWMutex

	store *corpusstore.Store

	interactions *repository.InteractionRepository
	embeddings   *repository.EmbeddingRepository
	sessions     *repository.SessionRepository
	audioFiles   *repository.AudioRepository
	jobs         *repository.JobRepository
	exports      *repository.ExportRepository

	auditLog *audit.Log
}

var (
	globalMu sync.Mutex
	global   *Container
)

// New builds a Container bound to an already-open store, eagerly
// constructing every repository (they're cheap structs wrapping the
// store). Nothing is built on demand: Global() never constructs a
// Container, it only returns the one installed by Configure.
func New(store *corpusstore.Store, embeddingDim int) *Container {
	return &Container{
		store:        store,
		interactions: repository.NewInteractionRepository(store),
		embeddings:   repository.NewEmbeddingRepository(store, embeddingDim),
		sessions:     repository.NewSessionRepository(store),
		audioFiles:   repository.NewAudioRepository(store),
		jobs:         repository.NewJobRepository(store),
		exports:      repository.NewExportRepository(store),
		auditLog:     audit.NewLog(store),
	}
}

// Configure installs c as the process-wide container, replacing any
// previous instance. Typically called once from main after Init/Open.
func Configure(c *Container) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = c
}

// Global returns the process-wide Container, failing if Configure was
// never called.
func Global() (*Container, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		return nil, fmt.Errorf("container: not configured — call container.Configure first")
	}
	return global, nil
}

// Reset clears the process-wide container. Exposed for tests only.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = nil
}

func (c *Container) Store() *corpusstore.Store { return c.store }

func (c *Container) Interactions() *repository.InteractionRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interactions
}

func (c *Container) Embeddings() *repository.EmbeddingRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddings
}

func (c *Container) Sessions() *repository.SessionRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions
}

func (c *Container) AudioFiles() *repository.AudioRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.audioFiles
}

func (c *Container) Jobs() *repository.JobRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jobs
}

func (c *Container) Exports() *repository.ExportRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exports
}

func (c *Container) Audit() *audit.Log {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auditLog
}
