package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPClient publishes recompute jobs to a RabbitMQ direct exchange and consumes them.
type AMQPClient struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	maxRetries   int
	log          *zap.Logger

	// amqp091 channels must not publish from several goroutines at once
	pubMu sync.Mutex
}

func NewAMQPClient(url, exchangeName, queueName string, maxRetries int, log *zap.Logger) (*AMQPClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &AMQPClient{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		maxRetries:   maxRetries,
		log:          log.Named("jobs.amqp"),
	}

	if err := c.setup(); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *AMQPClient) setup() error {
	if err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key == queue name
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Enqueue publishes a persistent message for job.
func (c *AMQPClient) Enqueue(ctx context.Context, job RecomputeJob) error {
	body, err := job.marshal()
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	err = c.channel.PublishWithContext(ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	c.log.Debug("job published", zap.String("key", job.Key()))
	return nil
}

// Consume runs h for every delivered job until ctx is done. Failed jobs are retried
// in place, then requeued once; a redelivered job that still fails is dropped.
func (c *AMQPClient) Consume(ctx context.Context, h Handler) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.Info("consumer started", zap.String("queue", c.queueName))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopped", zap.Error(ctx.Err()))
			return nil
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.handleDelivery(ctx, delivery, h)
		}
	}
}

func (c *AMQPClient) handleDelivery(ctx context.Context, d amqp091.Delivery, h Handler) {
	job, err := unmarshalJob(d.Body)
	if err != nil {
		c.log.Error("invalid job message", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := runWithRetry(ctx, h, job, c.maxRetries, 100*time.Millisecond, c.log); err != nil {
		requeue := !d.Redelivered
		c.log.Error("job failed",
			zap.String("key", job.Key()),
			zap.Bool("requeue", requeue),
			zap.Error(err))
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}

func (c *AMQPClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
