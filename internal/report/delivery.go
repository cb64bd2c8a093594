package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/fieldline/workdesk/pkg/utils"
	"go.uber.org/zap"
)

// DeliveryMode selects how generated artifacts reach the requester.
type DeliveryMode string

const (
	DeliveryDownload DeliveryMode = "download"
	DeliveryEmail    DeliveryMode = "email"
)

// ParseDeliveryMode validates a client-supplied delivery mode. Empty input
// defaults to download.
func ParseDeliveryMode(s string) (DeliveryMode, error) {
	switch DeliveryMode(s) {
	case DeliveryDownload, "":
		return DeliveryDownload, nil
	case DeliveryEmail:
		return DeliveryEmail, nil
	default:
		return "", fmt.Errorf("%w: unknown delivery mode %q", models.ErrValidation, s)
	}
}

// Mailer sends a message carrying report attachments. Implemented by the
// email package; declared here so report generation does not depend on the
// SMTP wiring.
type Mailer interface {
	SendReport(ctx context.Context, to, subject, body string, attachments []Artifact) error
}

// Dispatcher routes finished artifacts to their destination. Download mode
// is handled by the HTTP layer streaming the artifact directly; Dispatcher
// owns the email path.
type Dispatcher struct {
	mailer Mailer
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher. mailer may be nil when email delivery
// is not configured; Email then fails with a clear error.
func NewDispatcher(mailer Mailer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, logger: logger}
}

// Email sends all artifacts as attachments on a single message. Sending is
// one attempt; a failure is returned to the caller, never retried here.
func (d *Dispatcher) Email(ctx context.Context, recipient string, data *Data, artifacts []Artifact) error {
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("%w: recipient required for email delivery", models.ErrValidation)
	}
	if err := utils.ValidateEmail(recipient); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if d.mailer == nil {
		return fmt.Errorf("email delivery not configured")
	}
	if len(artifacts) == 0 {
		return fmt.Errorf("no artifacts to deliver")
	}

	subject := data.Title
	if data.RangeLabel != "" {
		subject += " - " + data.RangeLabel
	}

	if err := d.mailer.SendReport(ctx, recipient, subject, d.body(data, artifacts), artifacts); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}

	d.logger.Info("Report delivered by email",
		zap.String("recipient", recipient),
		zap.String("title", data.Title),
		zap.Int("attachments", len(artifacts)))
	return nil
}

func (d *Dispatcher) body(data *Data, artifacts []Artifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", data.Title)
	if data.RangeLabel != "" {
		fmt.Fprintf(&b, "%s\n", data.RangeLabel)
	}
	fmt.Fprintf(&b, "Generated %s\n\n", data.GeneratedAt.Format(time.RFC1123))
	fmt.Fprintf(&b, "Work items included: %d\n\n", data.Summary.Total)
	b.WriteString("Attached files:\n")
	for _, a := range artifacts {
		fmt.Fprintf(&b, "  - %s\n", a.Filename)
	}
	return b.String()
}
