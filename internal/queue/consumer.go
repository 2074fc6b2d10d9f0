package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer reads booking events and appends them to a log file.
type Consumer struct {
	URL     string
	Queue   string
	LogPath string
	Log     *zap.Logger

	mu sync.Mutex
}

// NewConsumer returns a Consumer with defaults for empty settings.
func NewConsumer(url, queueName, logPath string, log *zap.Logger) *Consumer {
	if queueName == "" {
		queueName = DefaultBookingQueue
	}
	if logPath == "" {
		logPath = filepath.Join("logs", "booking.log")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{URL: url, Queue: queueName, LogPath: logPath, Log: log}
}

// Run connects, consumes and reconnects with exponential backoff until
// ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("booking consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("booking consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("booking consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Log.Error("booking consumer: handle message failed", zap.Error(err))
				// Drop it; requeueing a poison message would loop forever.
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one event and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BookingID == 0 {
		return errors.New("event without booking id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(ev.LogLine()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	c.Log.Info("booking recorded", zap.Uint64("booking_id", ev.BookingID))
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
