package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/config"
	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/service/whatsapp"
)

// DigestSource renders the daily incubation digest.
type DigestSource interface {
	DailyDigest(ctx context.Context, now time.Time) (string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	location     *time.Location
	digest       DigestSource
	messagingSvc whatsapp.MessagingService
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a scheduler running in the configured timezone.
func NewScheduler(cfg config.Config, digest DigestSource, messagingSvc whatsapp.MessagingService, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Reporting.Timezone, err)
	}

	// standard 5-field parser: min, hour, dom, month, dow
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:         c,
		location:     loc,
		digest:       digest,
		messagingSvc: messagingSvc,
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// Start registers the digest job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule), zap.String("timezone", s.location.String()))

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.sendDailyDigest); err != nil {
		return fmt.Errorf("schedule daily digest: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.SendDigest(ctx, time.Now().In(s.location)); err != nil {
		s.logger.Error("daily digest failed", zap.Error(err))
		return
	}
	s.logger.Info("daily digest sent successfully")
}

// SendDigest builds the digest for now, read in the scheduler's timezone, and
// sends it to the report recipient.
func (s *Scheduler) SendDigest(ctx context.Context, now time.Time) error {
	if s.messagingSvc == nil || s.cfg.WhatsApp.ReportRecipient == "" {
		return errors.New("no report recipient configured")
	}

	report, err := s.digest.DailyDigest(ctx, now.In(s.location))
	if err != nil {
		return fmt.Errorf("generate daily digest: %w", err)
	}

	req := models.OutboundMessageRequest{
		To:      s.cfg.WhatsApp.ReportRecipient,
		Message: report,
	}
	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		return fmt.Errorf("send daily digest: %w", err)
	}
	return nil
}
