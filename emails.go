package accounts

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
)

// EmailSender is the delivery backend behind the TemplateNotifier, the
// mailtrap package provides the production implementation.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html, category string) error
}

// TemplateNotifier renders the embedded pongo2 email templates and hands
// the HTML to an EmailSender.
type TemplateNotifier struct {
	sender EmailSender
	engine *django.Engine
	logger Logger
}

var _ Notifier = (*TemplateNotifier)(nil)

// NewTemplateNotifier creates a notifier that renders views/emails/*.html
func NewTemplateNotifier(sender EmailSender) (*TemplateNotifier, error) {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to scope email templates")
	}

	engine := django.NewFileSystem(http.FS(views), ".html")
	if err := engine.Load(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load email templates")
	}

	return &TemplateNotifier{
		sender: sender,
		engine: engine,
		logger: defLogger{},
	}, nil
}

// WithLogger overrides the notifier logger
func (n *TemplateNotifier) WithLogger(logger Logger) *TemplateNotifier {
	if logger != nil {
		n.logger = logger
	}
	return n
}

func (n *TemplateNotifier) render(name string, bind map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := n.engine.Render(&buf, name, bind); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to render email template").
			WithMetadata(map[string]any{"template": name})
	}
	return buf.String(), nil
}

func (n *TemplateNotifier) send(ctx context.Context, to, subject, template, category string, bind map[string]any) error {
	html, err := n.render(template, bind)
	if err != nil {
		return err
	}

	n.logger.Debug("sending email", "to", to, "template", template, "category", category)

	if err := n.sender.Send(ctx, to, subject, html, category); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to deliver email").
			WithMetadata(map[string]any{"template": template})
	}

	return nil
}

func (n *TemplateNotifier) SendVerificationEmail(ctx context.Context, email, name, code string) error {
	return n.send(ctx, email, "Verify your email", "emails/verification", "Email Verification", map[string]any{
		"name": name,
		"code": code,
	})
}

func (n *TemplateNotifier) SendWelcomeEmail(ctx context.Context, email, name, setPasswordURL string) error {
	return n.send(ctx, email, "Welcome aboard", "emails/welcome", "Welcome", map[string]any{
		"name":             name,
		"set_password_url": setPasswordURL,
	})
}

func (n *TemplateNotifier) SendPasswordResetEmail(ctx context.Context, email, resetURL string) error {
	return n.send(ctx, email, "Reset your password", "emails/password_reset", "Password Reset", map[string]any{
		"reset_url": resetURL,
	})
}

func (n *TemplateNotifier) SendPasswordResetSuccessEmail(ctx context.Context, email string) error {
	return n.send(ctx, email, "Password reset successful", "emails/password_reset_success", "Password Reset", nil)
}

func (n *TemplateNotifier) SendPasswordSetSuccessEmail(ctx context.Context, email string) error {
	return n.send(ctx, email, "Your password is set", "emails/password_set_success", "Password Setup", nil)
}
