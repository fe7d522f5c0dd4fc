package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// CancelRegistry tracks cooperative cancel requests. A cancel request
// marks the job here (Fabric.RequestCancel also appends
// JOB_CANCEL_REQUESTED to the audit log); the worker polls between stages
// and stops before the next one if a cancel is pending.
type CancelRegistry interface {
	Request(ctx context.Context, jobID string) error
	IsRequested(ctx context.Context, jobID string) bool
}

// NativeCancelRegistry is an in-process CancelRegistry for single-process
// native-mode deployments.
type NativeCancelRegistry struct {
	mu        sync.Mutex
	requested map[string]bool
}

// NewNativeCancelRegistry builds an empty NativeCancelRegistry.
func NewNativeCancelRegistry() *NativeCancelRegistry {
	return &NativeCancelRegistry{requested: make(map[string]bool)}
}

func (r *NativeCancelRegistry) Request(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requested[jobID] = true
	return nil
}

func (r *NativeCancelRegistry) IsRequested(_ context.Context, jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requested[jobID]
}

// RedisCancelRegistry shares a distributed-mode RedisQueue's connection to
// publish cancel requests visible to whichever process's worker picks up
// the job.
type RedisCancelRegistry struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCancelRegistry builds a RedisCancelRegistry over an existing
// client/prefix pair, typically reused from a RedisQueue.
func NewRedisCancelRegistry(client *redis.Client, keyPrefix string) *RedisCancelRegistry {
	return &RedisCancelRegistry{client: client, keyPrefix: keyPrefix}
}

func (r *RedisCancelRegistry) key(jobID string) string {
	return r.keyPrefix + ":cancel:" + jobID
}

func (r *RedisCancelRegistry) Request(ctx context.Context, jobID string) error {
	return r.client.Set(ctx, r.key(jobID), "1", 24*time.Hour).Err()
}

func (r *RedisCancelRegistry) IsRequested(ctx context.Context, jobID string) bool {
	n, err := r.client.Exists(ctx, r.key(jobID)).Result()
	return err == nil && n > 0
}
