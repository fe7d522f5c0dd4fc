package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestResolveConcurrencyHonorsExplicitValue(t *testing.T) {
	if got := ResolveConcurrency(4); got != 4 {
		t.Fatalf("expected explicit concurrency to pass through, got %d", got)
	}
}

func TestResolveConcurrencyAutoSizesToAtLeastOne(t *testing.T) {
	if got := ResolveConcurrency(0); got < 1 {
		t.Fatalf("expected auto-sized concurrency to be at least 1, got %d", got)
	}
}

func TestPoolRunInvokesEveryWorkerUntilStopped(t *testing.T) {
	p := NewPool(3, 0)
	var calls int64

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx, func(ctx context.Context, workerID int) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(time.Millisecond)
		})
		close(done)
	}()
	<-done

	if atomic.LoadInt64(&calls) == 0 {
		t.Fatalf("expected the pool to invoke its handler at least once")
	}
	if p.IsRunning() {
		t.Fatalf("expected the pool to report stopped once Run returns")
	}
}
