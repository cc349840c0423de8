package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Template names.
const (
	TemplateWelcome       = "welcome"
	TemplateExpiringSoon  = "expiring_soon"
	TemplateExpiringToday = "expiring_today"
	TemplateExpired       = "expired"
	TemplateSaleConfirmed = "sale_confirmed"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Service renders templates and delivers them through a bounded async queue.
type Service struct {
	sender    Sender
	templates map[string]*template.Template
	queue     chan *queuedEmail
	wg        sync.WaitGroup
	enabled   bool
}

type queuedEmail struct {
	To       string
	ToName   string
	Subject  string
	Template string
	Data     interface{}
}

// NewService creates the email service. With an empty API key emails are
// rendered and logged but not sent.
func NewService(config SendGridConfig) *Service {
	if config.APIKey == "" {
		log.Warn().Msg("SendGrid API key not configured, emails will not be sent")
	}
	return newService(NewSendGridClient(config), config.APIKey != "", 100)
}

func newService(sender Sender, enabled bool, queueSize int) *Service {
	s := &Service{
		sender:    sender,
		templates: mustParseTemplates(),
		queue:     make(chan *queuedEmail, queueSize),
		enabled:   enabled,
	}

	s.wg.Add(1)
	go s.worker()

	return s
}

func mustParseTemplates() map[string]*template.Template {
	bodies := map[string]string{
		TemplateWelcome:       welcomeTemplate,
		TemplateExpiringSoon:  expiringSoonTemplate,
		TemplateExpiringToday: expiringTodayTemplate,
		TemplateExpired:       expiredTemplate,
		TemplateSaleConfirmed: saleConfirmedTemplate,
	}

	out := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		out[name] = template.Must(template.Must(template.New("base").Parse(baseTemplate)).New("content").Parse(body))
	}
	return out
}

func (s *Service) worker() {
	defer s.wg.Done()

	for email := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := s.send(ctx, email); err != nil {
			log.Error().Err(err).
				Str("to", email.To).
				Str("template", email.Template).
				Msg("Failed to send email")
		}
		cancel()
	}
}

// Render produces the full HTML document for a template.
func (s *Service) Render(name string, data interface{}) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("email template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *Service) send(ctx context.Context, email *queuedEmail) error {
	html, err := s.Render(email.Template, email.Data)
	if err != nil {
		return err
	}
	if !s.enabled {
		log.Debug().Str("to", email.To).Str("template", email.Template).Msg("Email skipped (disabled)")
		return nil
	}
	return s.sender.Send(ctx, &Message{
		To:          email.To,
		ToName:      email.ToName,
		Subject:     email.Subject,
		HTMLContent: html,
	})
}

// Queue adds an email to the async send queue. A full queue drops the email.
func (s *Service) Queue(to, toName, templateName, subject string, data interface{}) {
	select {
	case s.queue <- &queuedEmail{To: to, ToName: toName, Subject: subject, Template: templateName, Data: data}:
	default:
		log.Warn().Str("to", to).Str("template", templateName).Msg("Email queue full, dropping email")
	}
}

// SendSync sends an email synchronously (blocking)
func (s *Service) SendSync(ctx context.Context, to, toName, templateName, subject string, data interface{}) error {
	return s.send(ctx, &queuedEmail{To: to, ToName: toName, Subject: subject, Template: templateName, Data: data})
}

// Close drains the queue and stops the worker.
func (s *Service) Close() {
	close(s.queue)
	s.wg.Wait()
}
