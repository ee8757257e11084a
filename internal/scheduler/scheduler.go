package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquiler/internal/config"
	"github.com/mamadbah2/alquiler/internal/domain/models"
)

const checkTimeout = time.Minute

// WeekValidator refreshes the active-weeks warning data.
type WeekValidator interface {
	ValidateActiveWeeks(ctx context.Context) (*models.ActiveWeeksReport, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	validator WeekValidator
	schedule  string
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ValidationConfig, validator WeekValidator, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	// Standard 5-field cron expressions (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:      c,
		validator: validator,
		schedule:  cfg.CronSchedule,
		logger:    logger,
	}, nil
}

// Start registers the active-weeks check and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.checkActiveWeeks); err != nil {
		return fmt.Errorf("schedule active weeks check %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunNow performs one check outside the schedule.
func (s *Scheduler) RunNow() {
	s.checkActiveWeeks()
}

func (s *Scheduler) checkActiveWeeks() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	report, err := s.validator.ValidateActiveWeeks(ctx)
	if err != nil {
		s.logger.Error("failed to validate active weeks", zap.Error(err))
		return
	}

	if !report.HasProblems {
		s.logger.Info("active weeks are within range", zap.Int("active", report.ActiveCount))
		return
	}

	for _, a := range report.Anomalies {
		s.logger.Warn("active week out of range",
			zap.Int("week", a.Number),
			zap.String("start", a.StartDate),
			zap.String("end", a.EndDate),
			zap.String("kind", string(a.Kind)),
			zap.Int("days_off", a.DaysOff))
	}
}
