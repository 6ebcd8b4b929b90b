package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hatchery/internal/config"
	"github.com/mamadbah2/hatchery/internal/domain/models"
)

type stubDigest struct {
	text string
	err  error
	at   time.Time
}

func (d *stubDigest) DailyDigest(_ context.Context, now time.Time) (string, error) {
	d.at = now
	return d.text, d.err
}

type stubMessaging struct {
	sent []models.OutboundMessageRequest
}

func (m *stubMessaging) VerifyWebhookToken(_, _, challenge string) (string, error) {
	return challenge, nil
}

func (m *stubMessaging) HandleWebhook(context.Context, models.WebhookPayload) error { return nil }

func (m *stubMessaging) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	m.sent = append(m.sent, req)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Reporting: config.ReportingConfig{CronSchedule: "0 8 * * *", Timezone: "UTC"},
		WhatsApp:  config.WhatsAppConfig{ReportRecipient: "224600000000"},
	}
}

func TestSendDigest(t *testing.T) {
	digest := &stubDigest{text: "Incubation digest 2025-03-11: no eggs incubating."}
	msg := &stubMessaging{}
	s, err := NewScheduler(testConfig(), digest, msg, nil)
	require.NoError(t, err)

	now := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.SendDigest(context.Background(), now))
	require.Len(t, msg.sent, 1)
	assert.Equal(t, "224600000000", msg.sent[0].To)
	assert.Equal(t, digest.text, msg.sent[0].Message)
	assert.Equal(t, now, digest.at)
}

func TestSendDigest_Failures(t *testing.T) {
	cfg := testConfig()
	cfg.WhatsApp.ReportRecipient = ""
	s, err := NewScheduler(cfg, &stubDigest{}, &stubMessaging{}, nil)
	require.NoError(t, err)
	assert.Error(t, s.SendDigest(context.Background(), time.Now()))

	msg := &stubMessaging{}
	s, err = NewScheduler(testConfig(), &stubDigest{err: errors.New("store offline")}, msg, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, s.SendDigest(context.Background(), time.Now()), "store offline")
	assert.Empty(t, msg.sent)
}

func TestNewScheduler_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.Reporting.Timezone = "Mars/Olympus"
	_, err := NewScheduler(cfg, &stubDigest{}, nil, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Reporting.CronSchedule = "every morning"
	s, err := NewScheduler(cfg, &stubDigest{}, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}
