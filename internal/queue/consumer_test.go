package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-backend/internal/logging"
	"github.com/iliyamo/lms-backend/internal/mail"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func TestConsumerHandle_DeliversJob(t *testing.T) {
	var logs bytes.Buffer
	s := &recordingSender{}
	c := NewConsumer("amqp://unused", s, logging.NewWithWriter(&logs, "info"))

	body, err := json.Marshal(MailJob{
		ID:      "j-1",
		Message: mail.Message{To: "a@b.c", Subject: "Hi", Template: mail.TemplateActivation},
	})
	require.NoError(t, err)

	require.NoError(t, c.Handle(context.Background(), body))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "a@b.c", s.sent[0].To)
	assert.Contains(t, logs.String(), `"job_id":"j-1"`)
}

func TestConsumerHandle_Errors(t *testing.T) {
	c := NewConsumer("amqp://unused", &recordingSender{err: errors.New("smtp down")}, logging.NewWithWriter(&bytes.Buffer{}, "info"))

	assert.ErrorIs(t, c.Handle(context.Background(), []byte("{not json")), ErrMalformedJob)

	err := c.Handle(context.Background(), []byte(`{"id":"x","message":{}}`))
	assert.ErrorContains(t, err, "smtp down")
	assert.NotErrorIs(t, err, ErrMalformedJob, "send failures must be requeued, not dropped")
}

func TestRun_StopsWhenCancelled(t *testing.T) {
	c := NewConsumer("amqp://127.0.0.1:1/", &recordingSender{}, logging.NewWithWriter(&bytes.Buffer{}, "error"))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
