// Package queue moves mail jobs through RabbitMQ. The request path
// publishes a MailJob to the durable mail.outbox queue and returns; a
// background consumer renders and delivers it.
package queue

import (
	"time"

	"github.com/iliyamo/lms-backend/internal/mail"
)

// MailQueue is the durable queue mail jobs are published to.
const MailQueue = "mail.outbox"

// MailJob is the message body on MailQueue.
type MailJob struct {
	ID         string       `json:"id"`
	Message    mail.Message `json:"message"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
}
