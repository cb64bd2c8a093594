package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockMailer records the last send and returns a configured error.
type mockMailer struct {
	to          string
	subject     string
	body        string
	attachments []Artifact
	err         error
	calls       int
}

func (m *mockMailer) SendReport(ctx context.Context, to, subject, body string, attachments []Artifact) error {
	m.calls++
	m.to, m.subject, m.body, m.attachments = to, subject, body, attachments
	return m.err
}

func TestParseDeliveryMode(t *testing.T) {
	mode, err := ParseDeliveryMode("")
	require.NoError(t, err)
	assert.Equal(t, DeliveryDownload, mode)

	mode, err = ParseDeliveryMode("email")
	require.NoError(t, err)
	assert.Equal(t, DeliveryEmail, mode)

	_, err = ParseDeliveryMode("carrier-pigeon")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDispatcherEmail(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	ctx := context.Background()

	data := &Data{
		Title:       "Weekly Report",
		RangeLabel:  "Jun 29, 2025 - Jul 5, 2025",
		GeneratedAt: time.Date(2025, 7, 6, 6, 0, 0, 0, time.UTC),
		Summary:     Summary{Total: 3},
	}
	artifacts := []Artifact{
		{Filename: "weekly-report-20250706-060000.pdf", Content: []byte("%PDF-")},
		{Filename: "weekly-report-20250706-060000.xlsx", Content: []byte("PK")},
	}

	t.Run("sends all artifacts on one message", func(t *testing.T) {
		mailer := &mockMailer{}
		d := NewDispatcher(mailer, logger)

		err := d.Email(ctx, "owner@homefix.test", data, artifacts)
		require.NoError(t, err)

		assert.Equal(t, 1, mailer.calls)
		assert.Equal(t, "owner@homefix.test", mailer.to)
		assert.Equal(t, "Weekly Report - Jun 29, 2025 - Jul 5, 2025", mailer.subject)
		assert.Len(t, mailer.attachments, 2)
		assert.Contains(t, mailer.body, "Work items included: 3")
		assert.Contains(t, mailer.body, "weekly-report-20250706-060000.pdf")
	})

	t.Run("missing recipient is a validation error", func(t *testing.T) {
		mailer := &mockMailer{}
		d := NewDispatcher(mailer, logger)

		err := d.Email(ctx, "  ", data, artifacts)
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Zero(t, mailer.calls)
	})

	t.Run("malformed recipient is a validation error", func(t *testing.T) {
		mailer := &mockMailer{}
		d := NewDispatcher(mailer, logger)

		err := d.Email(ctx, "not-an-address", data, artifacts)
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Zero(t, mailer.calls)
	})

	t.Run("send failure is reported after a single attempt", func(t *testing.T) {
		mailer := &mockMailer{err: errors.New("smtp unreachable")}
		d := NewDispatcher(mailer, logger)

		err := d.Email(ctx, "owner@homefix.test", data, artifacts)
		require.Error(t, err)
		assert.Equal(t, 1, mailer.calls)
	})

	t.Run("unconfigured mailer fails cleanly", func(t *testing.T) {
		d := NewDispatcher(nil, logger)
		err := d.Email(ctx, "owner@homefix.test", data, artifacts)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrValidation)
	})

	t.Run("no artifacts is an error", func(t *testing.T) {
		mailer := &mockMailer{}
		d := NewDispatcher(mailer, logger)

		err := d.Email(ctx, "owner@homefix.test", data, nil)
		assert.Error(t, err)
		assert.Zero(t, mailer.calls)
	})
}
