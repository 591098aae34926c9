package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/dom/course-catalog/internal/domain"
	gomail "github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mailer delivers a rendered template to a single recipient. Delivery
// failure is fatal to whatever operation requested it.
type Mailer interface {
	Send(ctx context.Context, to, subject, templateName string, data any) error
}

type smtpMailer struct {
	client    *gomail.Client
	from      string
	templates *template.Template
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func NewSMTPMailer(cfg SMTPConfig) (Mailer, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.User),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &smtpMailer{client: client, from: cfg.From, templates: templates}, nil
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, templateName string, data any) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMailDelivery, err)
	}
	return nil
}
