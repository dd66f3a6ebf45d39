package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/lms-backend/internal/logging"
	"github.com/iliyamo/lms-backend/internal/mail"
)

// Publisher implements mail.Sender by enqueueing a MailJob. The broker
// connection is opened lazily and re-dialed when it drops; each publish
// uses its own short-lived channel.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

var _ mail.Sender = (*Publisher)(nil)

func (p *Publisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	p.conn = conn
	return conn, nil
}

// Send publishes m as a persistent MailJob.
func (p *Publisher) Send(ctx context.Context, m mail.Message) error {
	job := MailJob{ID: uuid.NewString(), Message: m, EnqueuedAt: time.Now().UTC()}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode job: %w", err)
	}

	conn, err := p.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(MailQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.EnqueuedAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", MailQueue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	logging.FromContext(ctx).Debug("mail job enqueued", "job_id", job.ID, "template", m.Template)
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
