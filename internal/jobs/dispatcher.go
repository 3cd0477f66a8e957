package jobs

import (
	"fmt"

	"github.com/Isild/home-budget-backend/internal/config"

	"go.uber.org/zap"
)

// New builds the dispatcher selected by cfg.Backend.
func New(cfg config.JobsConfig, h Handler, log *zap.Logger) (Dispatcher, error) {
	switch cfg.Backend {
	case "inline":
		return NewInline(h, log), nil
	case "", "pool":
		return NewPool(h, cfg.Workers, cfg.QueueSize, cfg.MaxRetries, log), nil
	case "amqp":
		c, err := NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.MaxRetries, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown jobs backend %q", cfg.Backend)
	}
}
