package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/appeal-desk-api/internal/models"
	"github.com/noah-isme/appeal-desk-api/pkg/clock"
)

type overdueSweeper interface {
	SweepOverdue(ctx context.Context) ([]models.Appeal, error)
}

type reminderReader interface {
	ListDueForReminder(ctx context.Context, dueOnOrBefore time.Time) ([]models.Appeal, error)
}

// ReminderService selects appeals whose deadline is near or already missed.
type ReminderService struct {
	sweeper    overdueSweeper
	reader     reminderReader
	calendar   *clock.Calendar
	windowDays int
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewReminderService constructs the reminder scanner.
func NewReminderService(sweeper overdueSweeper, reader reminderReader, calendar *clock.Calendar, windowDays int, metrics *MetricsService, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calendar == nil {
		calendar = clock.NewCalendarIn(clock.System{}, time.UTC)
	}
	if windowDays <= 0 {
		windowDays = 5
	}
	return &ReminderService{
		sweeper:    sweeper,
		reader:     reader,
		calendar:   calendar,
		windowDays: windowDays,
		metrics:    metrics,
		logger:     logger,
	}
}

// Scan runs the overdue sweep first, then selects every active or overdue appeal due
// within the reminder window. Appeals already past due get the overdue variant.
func (s *ReminderService) Scan(ctx context.Context) (*models.ScanResult, error) {
	started := time.Now()

	flipped, err := s.sweeper.SweepOverdue(ctx)
	if err != nil {
		return nil, err
	}

	due, err := s.reader.ListDueForReminder(ctx, s.calendar.DaysFromToday(s.windowDays))
	if err != nil {
		return nil, classify(s.logger, s.metrics, "list appeals due for reminder", err)
	}

	now := s.calendar.Now().UTC()
	result := &models.ScanResult{
		OverdueCount: len(flipped),
		Reminded:     make([]models.ReminderNotice, 0, len(due)),
		Events:       make([]models.AppealEvent, 0, len(due)),
	}
	for i := range due {
		appeal := &due[i]
		days := s.calendar.DaysUntil(appeal.DueDate)
		kind := models.EventDeadlineReminder
		if days < 0 {
			kind = models.EventAppealOverdue
		}

		result.Reminded = append(result.Reminded, models.ReminderNotice{
			AppealID:      appeal.ID,
			AppealNumber:  appeal.AppealNumber,
			DistrictID:    appeal.DistrictID,
			DueDate:       appeal.DueDate,
			DaysRemaining: days,
			Kind:          kind,
		})

		event := appealEvent(kind, appeal, nil, now)
		remaining := days
		event.DaysRemaining = &remaining
		result.Events = append(result.Events, event)
	}

	s.metrics.ObserveScan(result, time.Since(started))
	s.logger.Info("reminder scan completed",
		zap.Int("overdue_flipped", result.OverdueCount),
		zap.Int("reminded", len(result.Reminded)),
		zap.String("today", clock.FormatDate(s.calendar.Today())),
	)
	return result, nil
}
