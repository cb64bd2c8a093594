package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fieldline/workdesk/internal/report"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config holds the SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers report emails over SMTP. It implements report.Mailer.
type Sender struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

// NewSender creates an SMTP sender. Credentials are optional; unauthenticated
// relays skip SMTP auth entirely.
func NewSender(cfg Config, logger *zap.Logger) (*Sender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Sender{
		client: client,
		from:   cfg.From,
		logger: logger,
	}, nil
}

// SendReport sends one message carrying every artifact as an attachment.
// Delivery is a single attempt; the caller reports failure to the operator.
func (s *Sender) SendReport(ctx context.Context, to, subject, body string, attachments []report.Artifact) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("failed to set sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	for _, artifact := range attachments {
		if err := msg.AttachReader(artifact.Filename, bytes.NewReader(artifact.Content)); err != nil {
			return fmt.Errorf("failed to attach %s: %w", artifact.Filename, err)
		}
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("attachment_count", len(attachments)))

	return nil
}
