package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"time"

	"github.com/carebridge-health/portal/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Service sends transactional portal mail through Resend. When disabled it
// logs the would-be message and succeeds, which is what development and test
// environments run with.
type Service struct {
	config       config.EmailConfig
	resendClient *resend.Client
	templates    *template.Template
	logger       zerolog.Logger
}

// InvitationParams is the content of the mail sent when an admin creates an
// account. TemporaryPassword is only set when the portal generated one.
type InvitationParams struct {
	To                string
	InvitedBy         string
	PortalURL         string
	TemporaryPassword string
}

type invitationData struct {
	InvitedBy         string
	PortalURL         string
	TemporaryPassword string
	CurrentYear       int
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if _, err := mail.ParseAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required when email is enabled")
		}
	}

	templates, err := template.New("invitation").Parse(invitationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse invitation template: %w", err)
	}

	svc := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		svc.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

func (s *Service) SendInvitation(ctx context.Context, params InvitationParams) error {
	if _, err := mail.ParseAddress(params.To); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", params.To).
			Str("invited_by", params.InvitedBy).
			Msg("email service disabled, skipping invitation email")
		return nil
	}

	var body bytes.Buffer
	data := invitationData{
		InvitedBy:         params.InvitedBy,
		PortalURL:         params.PortalURL,
		TemporaryPassword: params.TemporaryPassword,
		CurrentYear:       time.Now().Year(),
	}
	if err := s.templates.ExecuteTemplate(&body, "invitation", data); err != nil {
		return fmt.Errorf("render invitation template: %w", err)
	}

	return s.send(ctx, params.To, "Your CareBridge Portal account", body.String())
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	if s.resendClient == nil {
		return fmt.Errorf("resend client not initialized")
	}

	req := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("email sent")
	return nil
}

const invitationTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2933;">
  <h2>Welcome to the CareBridge Portal</h2>
  <p>An account has been created for you by {{.InvitedBy}}.</p>
  {{if .TemporaryPassword}}
  <p>Your temporary password is <code>{{.TemporaryPassword}}</code>.
     Please change it after your first login.</p>
  {{end}}
  <p><a href="{{.PortalURL}}">Sign in to the portal</a></p>
  <p style="color: #7b8794; font-size: 12px;">&copy; {{.CurrentYear}} CareBridge Health</p>
</body>
</html>`
