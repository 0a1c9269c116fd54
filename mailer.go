package expense

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

// TemplateMailer renders email bodies from embedded templates and hands
// them to a delivery function. The default delivery just logs, real
// deployments plug in an SMTP or API backed sender.
type TemplateMailer struct {
	engine  *django.Engine
	deliver DeliverFunc
	logger  Logger
}

// DeliverFunc takes a rendered email body and gets it to the recipient.
type DeliverFunc func(ctx context.Context, to, subject, body string) error

func NewTemplateMailer() (*TemplateMailer, error) {
	sub, err := fs.Sub(templatesFS, "data/templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to scope template filesystem")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load email templates")
	}

	m := &TemplateMailer{
		engine: engine,
		logger: defLogger{},
	}
	m.deliver = m.logDelivery

	return m, nil
}

func (m *TemplateMailer) WithLogger(logger Logger) *TemplateMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithDelivery plugs in the transport that actually sends the email.
func (m *TemplateMailer) WithDelivery(deliver DeliverFunc) *TemplateMailer {
	if deliver != nil {
		m.deliver = deliver
	}
	return m
}

func (m *TemplateMailer) Send(ctx context.Context, to, template string, vars map[string]any) error {
	var buf bytes.Buffer
	if err := m.engine.Render(&buf, template, vars); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render email template").
			WithMetadata(map[string]any{"template": template})
	}

	subject := subjectFor(template)

	return m.deliver(ctx, to, subject, buf.String())
}

func (m *TemplateMailer) logDelivery(_ context.Context, to, subject, _ string) error {
	m.logger.Info("sending %q to %s", subject, to)
	return nil
}

func subjectFor(template string) string {
	switch template {
	case "account_verification":
		return "Verify your email address"
	case "password_reset":
		return "Reset your password"
	default:
		return "Notification"
	}
}

var _ Mailer = (*TemplateMailer)(nil)
