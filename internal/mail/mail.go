// Package mail renders the transactional e-mails and delivers them over
// SMTP. Requests never talk to SMTP directly: services hand a Message to a
// Sender, which in production is the RabbitMQ publisher, and the queue
// consumer calls SMTPSender.Send.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Template names.
const (
	TemplateActivation        = "activation-mail.html"
	TemplateQuestionReply     = "question-reply.html"
	TemplateOrderConfirmation = "order-confirmation.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Message is one e-mail to render and send.
type Message struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Render executes the named template with m.Data.
func Render(m Message) (string, error) {
	t := templates.Lookup(m.Template)
	if t == nil {
		return "", fmt.Errorf("mail: unknown template %q", m.Template)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, m.Data); err != nil {
		return "", fmt.Errorf("mail: render %s: %w", m.Template, err)
	}
	return buf.String(), nil
}

// SMTPConfig holds the server and credentials for SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender renders templates and submits them to an SMTP server.
type SMTPSender struct {
	cfg  SMTPConfig
	send sendFunc
	now  func() time.Time
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// Send renders m and submits it. net/smtp has no context support, so ctx
// is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("mail: empty recipient")
	}
	body, err := Render(m)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, s.cfg.From, []string{m.To}, s.compose(m, body)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", m.To, err)
	}
	return nil
}

func (s *SMTPSender) compose(m Message, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(body)
	return b.Bytes()
}
