package service

import (
	"fmt"
	"sync"

	"github.com/clinicore/corpusengine/internal/audit"
	"github.com/clinicore/corpusengine/internal/policy"
)

// BaseService carries the identity and lifecycle state every concrete
// service embeds, adapted from the teacher's marble.Service (id/name/
// version, mutex-guarded running flag, stop channel) with the Marble/TEE
// and mux.Router fields dropped — this engine's services are pure
// data/validation layers, not HTTP handlers themselves.
type BaseService struct {
	mu sync.RWMutex

	name    string
	version string
	running bool
	stopCh  chan struct{}

	audit *audit.Log
}

// BaseConfig configures a BaseService.
type BaseConfig struct {
	Name    string
	Version string
	Audit   *audit.Log
}

// NewBaseService builds an embeddable BaseService.
func NewBaseService(cfg BaseConfig) BaseService {
	return BaseService{
		name:    cfg.Name,
		version: cfg.Version,
		audit:   cfg.Audit,
		stopCh:  make(chan struct{}),
	}
}

// Name returns the service's name.
func (s *BaseService) Name() string { return s.name }

// Version returns the service's version.
func (s *BaseService) Version() string { return s.version }

// Start marks the service running. Returns an error if already running.
func (s *BaseService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("service %s already running", s.name)
	}
	s.running = true
	return nil
}

// Stop marks the service stopped, closing its stop channel exactly once.
func (s *BaseService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)
	return nil
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *BaseService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// requireOwnership consults the current policy and fails with
// ErrValidation-adjacent PolicyDenied semantics (via the policy package's
// own sentinel) if ownership verification is required but wasn't done.
func requireOwnership(verified bool) error {
	p, err := policy.Current()
	if err != nil {
		return fmt.Errorf("service: load policy: %w", err)
	}
	return policy.RequireOwnership(p, verified)
}
