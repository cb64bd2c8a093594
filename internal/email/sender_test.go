package email

import (
	"context"
	"testing"

	"github.com/fieldline/workdesk/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewSender(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("requires host", func(t *testing.T) {
		_, err := NewSender(Config{From: "reports@homefix.test"}, logger)
		assert.ErrorContains(t, err, "smtp host")
	})

	t.Run("requires from address", func(t *testing.T) {
		_, err := NewSender(Config{Host: "smtp.homefix.test"}, logger)
		assert.ErrorContains(t, err, "from address")
	})

	t.Run("builds a client without credentials", func(t *testing.T) {
		sender, err := NewSender(Config{
			Host: "smtp.homefix.test",
			Port: 587,
			From: "reports@homefix.test",
		}, logger)
		require.NoError(t, err)
		assert.NotNil(t, sender)
	})
}

func TestSendReportRejectsBadRecipient(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sender, err := NewSender(Config{
		Host: "smtp.homefix.test",
		Port: 587,
		From: "reports@homefix.test",
	}, logger)
	require.NoError(t, err)

	// The message fails to build, so nothing is ever dialed.
	err = sender.SendReport(context.Background(), "not an address", "Subject", "Body", []report.Artifact{
		{Filename: "report.pdf", Content: []byte("%PDF-")},
	})
	assert.ErrorContains(t, err, "recipient address")
}
