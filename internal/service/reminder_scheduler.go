package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/appeal-desk-api/internal/models"
	"github.com/noah-isme/appeal-desk-api/internal/repository"
	"github.com/noah-isme/appeal-desk-api/pkg/clock"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
)

const reminderLockKey = "appeals:reminder-scan"

type reminderScanner interface {
	Scan(ctx context.Context) (*models.ScanResult, error)
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, events []models.AppealEvent) int
}

type scanLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (repository.ReleaseFunc, bool, error)
}

// ReminderSchedulerConfig configures the daily trigger.
type ReminderSchedulerConfig struct {
	RunAt   string
	LockTTL time.Duration
}

// ReminderScheduler triggers the reminder scan once a day at a fixed civil time.
// A Redis lock keeps replicas from scanning concurrently.
type ReminderScheduler struct {
	scanner    reminderScanner
	dispatcher eventDispatcher
	locker     scanLocker
	calendar   *clock.Calendar
	hour       int
	minute     int
	lockTTL    time.Duration
	logger     *zap.Logger
}

// NewReminderScheduler validates RunAt (HH:MM) and builds the scheduler.
func NewReminderScheduler(scanner reminderScanner, dispatcher eventDispatcher, locker scanLocker, calendar *clock.Calendar, cfg ReminderSchedulerConfig, logger *zap.Logger) (*ReminderScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calendar == nil {
		calendar = clock.NewCalendarIn(clock.System{}, time.UTC)
	}
	if cfg.RunAt == "" {
		cfg.RunAt = "09:00"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	runAt, err := time.Parse("15:04", cfg.RunAt)
	if err != nil {
		return nil, fmt.Errorf("parse reminder run time %q: %w", cfg.RunAt, err)
	}
	return &ReminderScheduler{
		scanner:    scanner,
		dispatcher: dispatcher,
		locker:     locker,
		calendar:   calendar,
		hour:       runAt.Hour(),
		minute:     runAt.Minute(),
		lockTTL:    cfg.LockTTL,
		logger:     logger,
	}, nil
}

// Run blocks until ctx is cancelled, scanning once per day.
func (s *ReminderScheduler) Run(ctx context.Context) {
	for {
		now := s.calendar.Now()
		next := s.NextRun(now)
		s.logger.Info("next reminder scan scheduled", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx); err != nil {
			if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrLockHeld.Code {
				s.logger.Info("reminder scan skipped, another replica holds the lock")
				continue
			}
			s.logger.Error("reminder scan failed", zap.Error(err))
		}
	}
}

// RunOnce takes the scan lock, scans and dispatches the resulting events.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (*models.ScanResult, error) {
	release, ok, err := s.locker.Acquire(ctx, reminderLockKey, s.lockTTL)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to acquire reminder lock")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrLockHeld, "reminder scan already running")
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			s.logger.Warn("release reminder lock failed", zap.Error(err))
		}
	}()

	result, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	scheduled := s.dispatcher.Dispatch(ctx, result.Events)
	s.logger.Info("reminder notifications scheduled", zap.Int("count", scheduled))
	return result, nil
}

// NextRun returns the first configured run time strictly after the given instant.
func (s *ReminderScheduler) NextRun(after time.Time) time.Time {
	local := after.In(s.calendar.Location())
	candidate := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.calendar.Location())
	if !candidate.After(local) {
		candidate = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.calendar.Location())
	}
	return candidate
}
