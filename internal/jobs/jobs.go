package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Enqueue after the dispatcher was closed.
var ErrClosed = errors.New("jobs: dispatcher closed")

// RecomputeJob asks for the day stat of one owner on one date to be rebuilt.
type RecomputeJob struct {
	OwnerID uint      `json:"owner_id"`
	Date    time.Time `json:"date"`
}

// Key identifies the (owner, date) pair; jobs with the same key never run concurrently.
func (j RecomputeJob) Key() string {
	return fmt.Sprintf("%d:%s", j.OwnerID, j.Date.UTC().Format("2006-01-02"))
}

func (j RecomputeJob) marshal() ([]byte, error) {
	return json.Marshal(j)
}

func unmarshalJob(data []byte) (RecomputeJob, error) {
	var j RecomputeJob
	if err := json.Unmarshal(data, &j); err != nil {
		return RecomputeJob{}, err
	}
	return j, nil
}

// Handler executes a job.
type Handler func(ctx context.Context, job RecomputeJob) error

// Dispatcher hands jobs to a backend. Enqueue does not wait for the job to finish,
// except for the inline backend.
type Dispatcher interface {
	Enqueue(ctx context.Context, job RecomputeJob) error
	Close() error
}

// backoff returns the delay before retry number attempt (0-based), doubling from base up to max.
func backoff(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return d
}

// runWithRetry runs h up to maxRetries+1 times and returns the last error.
func runWithRetry(ctx context.Context, h Handler, job RecomputeJob, maxRetries int, base time.Duration, log *zap.Logger) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = h(ctx, job); err == nil {
			return nil
		}
		log.Warn("job failed",
			zap.String("key", job.Key()),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt, base, 5*time.Second)):
		}
	}
	return err
}
