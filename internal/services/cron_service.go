package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const sweepTimeout = 5 * time.Minute

// ExpirySweeper expires due reward points
type ExpirySweeper interface {
	SweepExpiredPoints(ctx context.Context) (users, points int, err error)
}

// StaleTokenPurger deletes refresh tokens that expired or were revoked before a cutoff
type StaleTokenPurger interface {
	DeleteStaleTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

// CronService manages scheduled background jobs
type CronService struct {
	cron    *cron.Cron
	sweeper ExpirySweeper
	logger  *logrus.Logger
}

// NewCronService creates a new CronService. Schedules use six fields (seconds first).
func NewCronService(sweeper ExpirySweeper, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		logger:  logger,
	}
}

// ScheduleTokenCleanup adds a job purging refresh tokens stale for longer than retention.
// Call it before Start.
func (s *CronService) ScheduleTokenCleanup(schedule string, purger StaleTokenPurger, retention time.Duration) error {
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		deleted, err := purger.DeleteStaleTokens(ctx, time.Now().Add(-retention))
		if err != nil {
			s.logger.WithError(err).Error("Refresh token cleanup failed")
			return
		}
		s.logger.WithField("deleted", deleted).Info("Refresh token cleanup finished")
	}
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("failed to schedule refresh token cleanup: %w", err)
	}
	s.logger.WithField("schedule", schedule).Info("Scheduled refresh token cleanup")
	return nil
}

// Start schedules the reward expiry sweep, unless expirySchedule is empty, and starts the scheduler
func (s *CronService) Start(expirySchedule string) error {
	if expirySchedule != "" {
		if _, err := s.cron.AddFunc(expirySchedule, s.expiryJob); err != nil {
			return fmt.Errorf("failed to schedule reward expiry sweep: %w", err)
		}
		s.logger.WithField("schedule", expirySchedule).Info("Scheduled reward expiry sweep")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// RunExpirySweepNow runs the sweep synchronously
func (s *CronService) RunExpirySweepNow() {
	s.expiryJob()
}

func (s *CronService) expiryJob() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	started := time.Now()
	users, points, err := s.sweeper.SweepExpiredPoints(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Reward expiry sweep failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"users":    users,
		"points":   points,
		"duration": time.Since(started).String(),
	}).Info("Reward expiry sweep finished")
}
