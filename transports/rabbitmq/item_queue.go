// Package rabbitmq provides a RabbitMQ-backed item queue so pipeline
// stages can run in separate processes while keeping the same queue
// contract: non-blocking pop, bounded blocking-ish push. Items cross the
// broker as JSON; TryPop hands them back as json.RawMessage for the
// consuming stage to decode.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glimte/flowline-go/internal/backoff"
	"github.com/glimte/flowline-go/queue"
)

// ItemQueue implements queue.Queue over a single RabbitMQ queue.
type ItemQueue struct {
	conn      *amqp.Connection
	queueName string
	durable   bool
	logger    *slog.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

// config holds construction options for an ItemQueue.
type config struct {
	dialPolicy backoff.Policy
	durable    bool
	logger     *slog.Logger
}

// Option configures an ItemQueue.
type Option func(*config)

// WithDialPolicy sets the retry policy for the initial broker dial.
func WithDialPolicy(policy backoff.Policy) Option {
	return func(c *config) {
		c.dialPolicy = policy
	}
}

// WithDurable makes the underlying queue survive broker restarts.
func WithDurable(durable bool) Option {
	return func(c *config) {
		c.durable = durable
	}
}

// WithQueueLogger sets the logger for transport-level diagnostics. Stage
// logs still travel through the pipeline's log channel; this logger only
// reports broker trouble.
func WithQueueLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// NewItemQueue connects to the broker at url and declares queueName.
func NewItemQueue(ctx context.Context, url, queueName string, opts ...Option) (*ItemQueue, error) {
	cfg := &config{
		dialPolicy: backoff.NewExponential(200*time.Millisecond, 5*time.Second, 2.0, 5),
		durable:    true,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	var conn *amqp.Connection
	err := backoff.Retry(ctx, cfg.dialPolicy, func() error {
		var dialErr error
		conn, dialErr = amqp.Dial(url)
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, cfg.durable, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return &ItemQueue{
		conn:      conn,
		queueName: queueName,
		durable:   cfg.durable,
		logger:    cfg.logger,
		ch:        ch,
	}, nil
}

// TryPop implements queue.Queue using basic.get, which returns immediately
// when the queue is empty. Broker errors are logged and reported as an
// empty poll; the run loop's idle back-off naturally retries.
func (q *ItemQueue) TryPop() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	msg, ok, err := q.ch.Get(q.queueName, true)
	if err != nil {
		q.logger.Error("failed to get from queue",
			"queue", q.queueName,
			"error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	return json.RawMessage(msg.Body), true
}

// Push implements queue.Queue. The item is JSON-encoded and published
// persistently straight to the queue.
func (q *ItemQueue) Push(ctx context.Context, item any) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item for %s: %w", q.queueName, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.ch.PublishWithContext(ctx, "", q.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", q.queueName, err)
	}
	return nil
}

// Len returns the broker's current message count for the queue.
func (q *ItemQueue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	state, err := q.ch.QueueDeclarePassive(q.queueName, q.durable, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue %s: %w", q.queueName, err)
	}
	return state.Messages, nil
}

// Close releases the channel and connection.
func (q *ItemQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return q.conn.Close()
}

var _ queue.Queue = (*ItemQueue)(nil)
