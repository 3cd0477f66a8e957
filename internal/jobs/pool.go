package jobs

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pool is an in-process worker pool. Jobs are routed by key hash, so jobs for the
// same (owner, date) always land on the same worker and run in order.
type Pool struct {
	handler    Handler
	log        *zap.Logger
	maxRetries int
	retryBase  time.Duration
	jobTimeout time.Duration

	queues []chan RecomputeJob
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines, each with its own queue of queueSize jobs.
func NewPool(h Handler, workers, queueSize, maxRetries int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	p := &Pool{
		handler:    h,
		log:        log.Named("jobs.pool"),
		maxRetries: maxRetries,
		retryBase:  100 * time.Millisecond,
		jobTimeout: 30 * time.Second,
		queues:     make([]chan RecomputeJob, workers),
	}
	for i := range p.queues {
		p.queues[i] = make(chan RecomputeJob, queueSize)
		p.wg.Add(1)
		go p.worker(i, p.queues[i])
	}
	return p
}

func (p *Pool) Enqueue(ctx context.Context, job RecomputeJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	q := p.queues[p.slot(job.Key())]
	select {
	case q <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits until every queued job has run.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Pool) slot(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.queues)))
}

func (p *Pool) worker(id int, q <-chan RecomputeJob) {
	defer p.wg.Done()
	for job := range q {
		ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
		if err := runWithRetry(ctx, p.handler, job, p.maxRetries, p.retryBase, p.log); err != nil {
			p.log.Error("job dropped after retries",
				zap.Int("worker", id),
				zap.String("key", job.Key()),
				zap.Error(err))
		}
		cancel()
	}
}
