package jobs

import (
	"context"

	"go.uber.org/zap"
)

// Inline runs every job synchronously inside Enqueue.
type Inline struct {
	handler Handler
	log     *zap.Logger
}

func NewInline(h Handler, log *zap.Logger) *Inline {
	return &Inline{handler: h, log: log.Named("jobs.inline")}
}

func (d *Inline) Enqueue(ctx context.Context, job RecomputeJob) error {
	if err := d.handler(ctx, job); err != nil {
		d.log.Error("job failed", zap.String("key", job.Key()), zap.Error(err))
		return err
	}
	return nil
}

func (d *Inline) Close() error { return nil }
