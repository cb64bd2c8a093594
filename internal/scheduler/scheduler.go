package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/fieldline/workdesk/internal/report"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// sessionSweepSpec runs the expired-session sweep nightly, off-peak.
const sessionSweepSpec = "30 3 * * *"

// WorkItemSourceInterface supplies the snapshot scheduled reports run over
type WorkItemSourceInterface interface {
	ListAll() ([]models.WorkItem, error)
}

// SessionPrunerInterface removes expired sessions
type SessionPrunerInterface interface {
	DeleteExpired(now time.Time) (int64, error)
}

// Config describes the scheduled report. An empty Spec disables it; the
// session sweep runs regardless.
type Config struct {
	Spec          string // cron spec, e.g. "0 7 * * 1"
	Period        report.Period
	Recipient     string
	Formats       []report.Format
	IncludePrices bool
}

// Scheduler emails the previous period's report on a cron schedule and
// sweeps expired sessions nightly. It satisfies the worker lifecycle
// contract and is registered with the worker manager at startup.
type Scheduler struct {
	cfg        Config
	items      WorkItemSourceInterface
	generator  *report.Generator
	dispatcher *report.Dispatcher
	sessions   SessionPrunerInterface
	cron       *cron.Cron
	logger     *zap.Logger
}

// New creates a scheduler. A zero-value period defaults to weekly.
func New(cfg Config, items WorkItemSourceInterface, generator *report.Generator, dispatcher *report.Dispatcher, sessions SessionPrunerInterface, logger *zap.Logger) *Scheduler {
	if cfg.Period == "" {
		cfg.Period = report.PeriodWeekly
	}
	return &Scheduler{
		cfg:        cfg,
		items:      items,
		generator:  generator,
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     logger,
	}
}

// Name identifies the worker in lifecycle logs
func (s *Scheduler) Name() string {
	return "scheduler"
}

// Start registers the cron entries and begins running them. The cron stops
// when ctx is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()

	if s.cfg.Spec != "" {
		if s.cfg.Recipient == "" {
			return fmt.Errorf("scheduled reports require a recipient")
		}
		if _, err := c.AddFunc(s.cfg.Spec, s.runReport); err != nil {
			return fmt.Errorf("invalid report schedule %q: %w", s.cfg.Spec, err)
		}
		s.logger.Info("Scheduled report enabled",
			zap.String("spec", s.cfg.Spec),
			zap.String("period", string(s.cfg.Period)),
			zap.String("recipient", s.cfg.Recipient))
	} else {
		s.logger.Info("Scheduled reports disabled, no schedule configured")
	}

	if s.sessions != nil {
		if _, err := c.AddFunc(sessionSweepSpec, s.sweepSessions); err != nil {
			return fmt.Errorf("invalid session sweep schedule: %w", err)
		}
	}

	c.Start()
	s.cron = c

	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	return nil
}

// Stop halts the cron and waits for a running job to finish
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runReport() {
	s.runReportAt(time.Now().UTC())
}

// runReportAt generates the most recent fully elapsed period and emails it.
// Failures are logged and swallowed: the next scheduled run is the retry.
func (s *Scheduler) runReportAt(now time.Time) {
	prev, err := report.PreviousPeriod(s.cfg.Period, now)
	if err != nil {
		s.logger.Error("Failed to resolve report period", zap.Error(err))
		return
	}

	items, err := s.items.ListAll()
	if err != nil {
		s.logger.Error("Failed to load work items for scheduled report", zap.Error(err))
		return
	}

	opts := report.Options{
		Period:        s.cfg.Period,
		Anchor:        prev.Start,
		IncludePrices: s.cfg.IncludePrices,
		Formats:       s.cfg.Formats,
	}
	data, artifacts, err := s.generator.Generate(items, opts, now)
	if err != nil {
		s.logger.Error("Failed to generate scheduled report", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.dispatcher.Email(ctx, s.cfg.Recipient, data, artifacts); err != nil {
		s.logger.Error("Failed to deliver scheduled report",
			zap.String("recipient", s.cfg.Recipient),
			zap.Error(err))
		return
	}

	s.logger.Info("Scheduled report delivered",
		zap.String("period", string(s.cfg.Period)),
		zap.String("range", data.RangeLabel),
		zap.String("recipient", s.cfg.Recipient))
}

func (s *Scheduler) sweepSessions() {
	removed, err := s.sessions.DeleteExpired(time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to sweep expired sessions", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("Expired sessions removed", zap.Int64("count", removed))
	}
}
