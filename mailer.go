package auth

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

// Mailer delivers account verification links. The workflow treats
// delivery as fire and forget, failures are logged by the caller.
type Mailer interface {
	SendVerificationLink(ctx context.Context, to, link, name string) error
}

// Message is a rendered mail ready for transport
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender is the outbound transport boundary
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
// Useful for development and tests.
type LogSender struct {
	logger Logger
}

func NewLogSender(logger Logger) *LogSender {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("mail out", "to", msg.To, "subject", msg.Subject, "body", msg.HTML)
	return nil
}

const verificationMailSubject = "Verify your account"

// TemplateMailer renders the verification mail from the embedded
// template and hands it to a Sender.
type TemplateMailer struct {
	engine  *django.Engine
	sender  Sender
	subject string
}

type TemplateMailerOption func(*TemplateMailer)

func WithMailSubject(subject string) TemplateMailerOption {
	return func(m *TemplateMailer) {
		if subject != "" {
			m.subject = subject
		}
	}
}

func NewTemplateMailer(sender Sender, opts ...TemplateMailerOption) (*TemplateMailer, error) {
	if sender == nil {
		return nil, goerrors.New("mail sender is required", goerrors.CategoryBadInput)
	}

	templates, err := fs.Sub(GetTemplatesFS(), "data/templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open mail templates")
	}

	engine := django.NewFileSystem(http.FS(templates), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load mail templates")
	}

	m := &TemplateMailer{
		engine:  engine,
		sender:  sender,
		subject: verificationMailSubject,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m, nil
}

func (m *TemplateMailer) SendVerificationLink(ctx context.Context, to, link, name string) error {
	var buf bytes.Buffer

	err := m.engine.Render(&buf, "verify_link_mail", map[string]any{
		"name": name,
		"link": link,
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render verification mail")
	}

	return m.sender.Send(ctx, Message{
		To:      to,
		Subject: m.subject,
		HTML:    buf.String(),
	})
}

var _ Mailer = (*TemplateMailer)(nil)
