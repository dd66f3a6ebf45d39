package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/lms-backend/internal/mail"
)

// ErrMalformedJob marks a delivery whose body is not a MailJob. Such jobs
// are dropped; send failures are requeued.
var ErrMalformedJob = errors.New("malformed mail job")

// requeueDelay throttles redelivery while the mail server is down.
const requeueDelay = 2 * time.Second

// Consumer drains MailQueue into a mail.Sender.
type Consumer struct {
	url    string
	sender mail.Sender
	log    *slog.Logger
}

// NewConsumer returns a consumer delivering jobs through sender.
func NewConsumer(url string, sender mail.Sender, log *slog.Logger) *Consumer {
	return &Consumer{url: url, sender: sender, log: log.With("component", "mail-consumer")}
}

// Run connects, consumes and reconnects with exponential backoff (capped
// at 30s) until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial failed", "error", err, "retry_in", backoff.String())
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
		c.log.Warn("consume loop ended; reconnecting", "error", err)
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

	if err := ch.Qos(10, 0, false); err != nil {
		c.log.Warn("set qos failed", "error", err)
	}
	if _, err := ch.QueueDeclare(MailQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(MailQueue, "", false, false, false, false, nil)
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
			if err := c.Handle(ctx, d.Body); err != nil {
				if errors.Is(err, ErrMalformedJob) {
					c.log.Error("mail job discarded", "message_id", d.MessageId, "error", err)
					_ = d.Nack(false, false)
					continue
				}
				c.log.Warn("mail job failed; requeued", "message_id", d.MessageId, "redelivered", d.Redelivered, "error", err)
				if !sleep(ctx, requeueDelay) {
					_ = d.Nack(false, true)
					return ctx.Err()
				}
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one job body and sends it.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var job MailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if err := c.sender.Send(ctx, job.Message); err != nil {
		return err
	}
	c.log.Info("mail delivered", "job_id", job.ID, "template", job.Message.Template)
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
