package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/clinicore/corpusengine/internal/repository"
)

// Queue hands job ids to workers, native (in-process channel) or
// distributed (Redis list) depending on the environment probe result.
type Queue interface {
	// Push enqueues jobID for kind.
	Push(ctx context.Context, kind repository.JobKind, jobID string) error
	// Pop blocks until a job of any kind is available or ctx is done.
	Pop(ctx context.Context) (repository.JobKind, string, bool)
	// Claim records that inputDigest maps to jobID if no mapping exists yet,
	// returning the existing job_id and false when one was already present.
	Claim(ctx context.Context, inputDigest, jobID string) (string, bool, error)
	Close() error
}

// NativeQueue is an in-process, channel-backed Queue for single-process
// deployments. Idempotency is tracked with a plain map since there is only
// ever one writer process.
type NativeQueue struct {
	ch        chan queueItem
	claimedMu sync.Mutex
	claimed   map[string]string
}

type queueItem struct {
	kind  repository.JobKind
	jobID string
}

// NewNativeQueue builds a NativeQueue with the given channel buffer size.
func NewNativeQueue(buffer int) *NativeQueue {
	if buffer <= 0 {
		buffer = 256
	}
	return &NativeQueue{ch: make(chan queueItem, buffer), claimed: make(map[string]string)}
}

func (q *NativeQueue) Push(ctx context.Context, kind repository.JobKind, jobID string) error {
	select {
	case q.ch <- queueItem{kind: kind, jobID: jobID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *NativeQueue) Pop(ctx context.Context) (repository.JobKind, string, bool) {
	select {
	case item, ok := <-q.ch:
		if !ok {
			return "", "", false
		}
		return item.kind, item.jobID, true
	case <-ctx.Done():
		return "", "", false
	}
}

func (q *NativeQueue) Claim(_ context.Context, inputDigest, jobID string) (string, bool, error) {
	q.claimedMu.Lock()
	defer q.claimedMu.Unlock()
	if existing, ok := q.claimed[inputDigest]; ok {
		return existing, false, nil
	}
	q.claimed[inputDigest] = jobID
	return jobID, true, nil
}

func (q *NativeQueue) Close() error {
	close(q.ch)
	return nil
}

// RedisQueue is a Queue backed by Redis lists, one per job kind, for
// distributed mode where workers run in separate processes.
type RedisQueue struct {
	client    *redis.Client
	keyPrefix string
	kinds     []repository.JobKind
}

// NewRedisQueue builds a RedisQueue. kinds enumerates every kind Pop should
// poll across (BRPop accepts multiple keys and returns the first ready).
func NewRedisQueue(client *redis.Client, keyPrefix string, kinds []repository.JobKind) *RedisQueue {
	return &RedisQueue{client: client, keyPrefix: keyPrefix, kinds: kinds}
}

// Probe checks broker reachability with a PING, the environment probe that
// selects distributed vs. native mode at startup.
func Probe(ctx context.Context, client *redis.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

func (q *RedisQueue) listKey(kind repository.JobKind) string {
	return fmt.Sprintf("%s:queue:%s", q.keyPrefix, kind)
}

func (q *RedisQueue) Push(ctx context.Context, kind repository.JobKind, jobID string) error {
	return q.client.LPush(ctx, q.listKey(kind), jobID).Err()
}

func (q *RedisQueue) Pop(ctx context.Context) (repository.JobKind, string, bool) {
	keys := make([]string, len(q.kinds))
	for i, k := range q.kinds {
		keys[i] = q.listKey(k)
	}
	res, err := q.client.BRPop(ctx, 5*time.Second, keys...).Result()
	if err == redis.Nil || err != nil {
		return "", "", false
	}
	if len(res) != 2 {
		return "", "", false
	}
	for _, k := range q.kinds {
		if q.listKey(k) == res[0] {
			return k, res[1], true
		}
	}
	return "", "", false
}

// Claim uses SETNX on sha256(input) to make enqueueing the same input
// digest twice return the original job_id, across processes.
func (q *RedisQueue) Claim(ctx context.Context, inputDigest, jobID string) (string, bool, error) {
	key := q.keyPrefix + ":claim:" + inputDigest
	ok, err := q.client.SetNX(ctx, key, jobID, 7*24*time.Hour).Result()
	if err != nil {
		return "", false, fmt.Errorf("jobs: claim digest: %w", err)
	}
	if ok {
		return jobID, true, nil
	}
	existing, err := q.client.Get(ctx, key).Result()
	if err != nil {
		return "", false, fmt.Errorf("jobs: read existing claim: %w", err)
	}
	return existing, false, nil
}

func (q *RedisQueue) Close() error { return q.client.Close() }

// Client exposes the underlying Redis client so the fabric can build a
// RedisCancelRegistry sharing the same connection.
func (q *RedisQueue) Client() *redis.Client { return q.client }

// KeyPrefix exposes the queue's key namespace.
func (q *RedisQueue) KeyPrefix() string { return q.keyPrefix }
