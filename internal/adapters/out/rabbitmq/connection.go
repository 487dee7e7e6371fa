package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection owns the AMQP connection and the channel the notifier
// publishes on.
type Connection struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to url, retrying with exponential backoff until attempts
// run out or ctx is done.
func Dial(ctx context.Context, url string, attempts int, logger *slog.Logger) (*Connection, error) {
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Second

	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			ch, err := conn.Channel()
			if err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("open channel: %w", err)
			}
			return &Connection{conn: conn, ch: ch}, nil
		}
		lastErr = err
		logger.Warn("rabbitmq dial failed", "attempt", i, "error", err)

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", attempts, lastErr)
}

func (c *Connection) Channel() *amqp.Channel {
	return c.ch
}

func (c *Connection) Close() error {
	var err error
	if c.ch != nil {
		err = c.ch.Close()
	}
	if c.conn != nil {
		if cerr := c.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
