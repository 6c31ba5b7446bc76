// Package email delivers the club's transactional mail. Two interchangeable
// transports carry the same notifications: the Resend HTTP API when an API
// key is configured, otherwise SMTP with STARTTLS. Disabling email turns
// every send into a logged no-op, which keeps development environments quiet.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/neweragit/newera-server/internal/config"
	"github.com/neweragit/newera-server/internal/metrics"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

type Service struct {
	config       config.EmailConfig
	templates    *template.Template
	resendClient *resend.Client
	logger       zerolog.Logger
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	s := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.ResendAPIKey != "" {
		s.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return s, nil
}

// OTPData feeds the signup verification template.
type OTPData struct {
	FullName    string
	Code        string
	ExpiryMins  int
	CurrentYear int
}

// ResetData feeds the password reset template.
type ResetData struct {
	FullName    string
	Code        string
	ExpiryMins  int
	CurrentYear int
}

// TicketData feeds the ticket confirmation template.
type TicketData struct {
	FullName    string
	EventTitle  string
	EventVenue  string
	EventStart  string
	TicketCode  string
	CurrentYear int
}

// SendOTP mails the one-time signup verification code.
func (s *Service) SendOTP(ctx context.Context, to, fullName, code string, expiry time.Duration) error {
	data := OTPData{
		FullName:    fullName,
		Code:        code,
		ExpiryMins:  int(expiry.Minutes()),
		CurrentYear: time.Now().Year(),
	}
	return s.deliver(ctx, "otp", to, "Your New Era verification code", "otp.html", data)
}

// SendPasswordReset mails the password reset code.
func (s *Service) SendPasswordReset(ctx context.Context, to, fullName, code string, expiry time.Duration) error {
	data := ResetData{
		FullName:    fullName,
		Code:        code,
		ExpiryMins:  int(expiry.Minutes()),
		CurrentYear: time.Now().Year(),
	}
	return s.deliver(ctx, "password_reset", to, "Reset your New Era password", "password_reset.html", data)
}

// SendTicketConfirmation mails the member after an event registration.
func (s *Service) SendTicketConfirmation(ctx context.Context, to string, data TicketData) error {
	data.CurrentYear = time.Now().Year()
	return s.deliver(ctx, "ticket", to, "Your ticket for "+data.EventTitle, "ticket.html", data)
}

func (s *Service) deliver(ctx context.Context, kind, to, subject, templateName string, data any) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("template", templateName).
			Msg("email service disabled, skipping send")
		return nil
	}

	htmlBody, err := s.renderTemplate(templateName, data)
	if err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("render template %s: %w", templateName, err)
	}

	if s.resendClient != nil {
		err = s.sendViaResend(ctx, to, subject, htmlBody)
	} else {
		err = s.sendViaSMTP(to, subject, htmlBody)
	}
	if err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "error").Inc()
		return err
	}
	metrics.EmailsSent.WithLabelValues(kind, "sent").Inc()
	return nil
}

func (s *Service) renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// validateEmailAddress checks format and header injection attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
