package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/time/rate"
)

// Pool runs a bounded number of goroutines pulling from a Queue, adapted
// from the teacher's marble.WorkerGroup (stopCh/doneCh lifecycle, Add/Start/
// Stop) but pulling work items instead of running on a fixed tick.
type Pool struct {
	mu       sync.Mutex
	workers  int
	limiter  *rate.Limiter
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// ResolveConcurrency returns cfg workers if positive, otherwise the host's
// logical CPU count (falling back to 1 if the probe fails).
func ResolveConcurrency(configured int) int {
	if configured > 0 {
		return configured
	}
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// NewPool builds a Pool with workers goroutines sharing one limiter that
// admits at most ratePerSecond work items per second across the whole
// pool, with a burst of workers (0 disables the limiter).
func NewPool(workers int, ratePerSecond float64) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{workers: workers, stopCh: make(chan struct{})}
	if ratePerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), workers)
	}
	return p
}

// Run starts workers goroutines, each invoking handle in a loop until ctx
// is cancelled or Stop is called. Run blocks until every worker exits.
func (p *Pool) Run(ctx context.Context, handle func(ctx context.Context, workerID int)) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("jobs: pool already running")
	}
	p.running = true
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.stopCh:
					return
				default:
				}
				if p.limiter != nil {
					if err := p.limiter.Wait(ctx); err != nil {
						return
					}
				}
				handle(ctx, workerID)
			}
		}(i)
	}

	wg.Wait()
	p.mu.Lock()
	p.running = false
	close(p.doneCh)
	p.mu.Unlock()
	return nil
}

// Stop signals every worker to exit after its current iteration.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
	<-done
}

// IsRunning reports whether the pool's workers are active.
func (p *Pool) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
