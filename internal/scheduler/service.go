package scheduler

import (
	"fmt"
	"time"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner performs one monitoring pass
type Runner interface {
	RunMonitoring(cadence models.Cadence) error
}

// Service handles scheduling of monitoring tasks
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
}

// NewService creates a new scheduler service running jobs in the configured
// time zone.
func NewService(cfg *config.Config, runner Runner) (*Service, error) {
	loc := time.UTC
	if cfg.TimeZone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.TimeZone); err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.TimeZone, err)
		}
	}

	return &Service{
		config: cfg,
		runner: runner,
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
	}, nil
}

// FullScanSpec returns the cron expression of the full report for schedule
func FullScanSpec(schedule string) string {
	if schedule == "daily" {
		// 9 AM every day
		return "0 0 9 * * *"
	}
	// 9 AM every Monday
	return "0 0 9 * * MON"
}

// Start registers the full-cadence report and, when enabled, the lite scan
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(FullScanSpec(s.config.ReportSchedule), s.job(models.CadenceFull)); err != nil {
		return fmt.Errorf("failed to schedule full scan: %w", err)
	}

	if s.config.LiteScanHours > 0 {
		spec := fmt.Sprintf("@every %dh", s.config.LiteScanHours)
		if _, err := s.cron.AddFunc(spec, s.job(models.CadenceLite)); err != nil {
			return fmt.Errorf("failed to schedule lite scan: %w", err)
		}
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s full scans and lite scans every %dh", s.config.ReportSchedule, s.config.LiteScanHours)
	return nil
}

func (s *Service) job(cadence models.Cadence) func() {
	return func() {
		logrus.Infof("Starting scheduled %s monitoring run", cadence)
		if err := s.runner.RunMonitoring(cadence); err != nil {
			logrus.Errorf("Scheduled %s monitoring run failed: %v", cadence, err)
		}
	}
}

// Entries returns the number of scheduled jobs
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler and waits for running jobs
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
