package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/appeal-desk-api/internal/models"
	"github.com/noah-isme/appeal-desk-api/pkg/jobs"
)

const notificationJobType = "appeal.notification"

// Notification is one event addressed to one recipient.
type Notification struct {
	Recipient models.Submitter   `json:"recipient"`
	Event     models.AppealEvent `json:"event"`
}

// Notifier delivers a notification to a human through some channel.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// NotifierFunc allows using plain functions.
type NotifierFunc func(ctx context.Context, notification Notification) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, notification Notification) error {
	return f(ctx, notification)
}

type recipientDirectory interface {
	FindSubmitterByID(ctx context.Context, id string) (*models.Submitter, error)
	ListReviewersByDistrict(ctx context.Context, districtID int64) ([]models.Submitter, error)
}

type districtLookup interface {
	FindDistrictByID(ctx context.Context, id int64) (*models.District, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService fans committed lifecycle events out to their recipients.
// Failures are isolated per recipient and never reach the lifecycle operation.
type NotificationService struct {
	directory recipientDirectory
	districts districtLookup
	notifier  Notifier
	queue     jobEnqueuer
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService constructs the dispatcher. Without a queue deliveries run inline.
func NewNotificationService(directory recipientDirectory, districts districtLookup, notifier Notifier, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &NotificationService{
		directory: directory,
		districts: districts,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
}

// UseQueue routes deliveries through an asynchronous job queue.
func (s *NotificationService) UseQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Dispatch schedules one delivery per recipient of each event and returns how many
// were scheduled. Lookup and delivery errors are logged and skipped.
func (s *NotificationService) Dispatch(ctx context.Context, events []models.AppealEvent) int {
	if len(events) == 0 {
		return 0
	}
	districts := make(map[int64]*models.District)
	scheduled := 0
	for _, event := range events {
		s.enrich(ctx, &event, districts)

		recipients, err := s.recipients(ctx, event)
		if err != nil {
			s.logger.Warn("resolve notification recipients failed",
				zap.String("kind", string(event.Kind)),
				zap.String("appeal_id", event.AppealID),
				zap.Error(err),
			)
			continue
		}

		for _, recipient := range recipients {
			notification := Notification{Recipient: recipient, Event: event}
			if err := s.schedule(ctx, notification); err != nil {
				s.logger.Warn("schedule notification failed",
					zap.String("kind", string(event.Kind)),
					zap.String("recipient_id", recipient.ID),
					zap.Error(err),
				)
				continue
			}
			scheduled++
		}
	}
	return scheduled
}

// HandleJob delivers a queued notification. It is the handler of the notification queue.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(Notification)
	if !ok {
		s.logger.Error("dropping notification job with unexpected payload", zap.String("job_id", job.ID), zap.String("payload", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	return s.deliver(ctx, notification)
}

func (s *NotificationService) schedule(ctx context.Context, notification Notification) error {
	if s.queue == nil {
		return s.deliver(ctx, notification)
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    notificationJobType,
		Payload: notification,
	})
	if err != nil {
		s.metrics.RecordNotificationDropped(notification.Event.Kind)
		return fmt.Errorf("enqueue notification for %s: %w", notification.Recipient.ID, err)
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, notification Notification) error {
	err := s.notifier.Notify(ctx, notification)
	s.metrics.RecordNotification(notification.Event.Kind, err == nil)
	if err != nil {
		return fmt.Errorf("notify %s about %s: %w", notification.Recipient.ID, notification.Event.Kind, err)
	}
	return nil
}

// recipients returns the deduplicated audience of an event.
func (s *NotificationService) recipients(ctx context.Context, event models.AppealEvent) ([]models.Submitter, error) {
	var toReviewers, toSubmitter bool
	switch event.Kind {
	case models.EventAppealCreated, models.EventAnswerRejected, models.EventAnswerApproved,
		models.EventApprovalRequested, models.EventDeadlineReminder, models.EventAppealOverdue:
		toReviewers = true
	case models.EventAppealForwarded:
		toReviewers = true
		toSubmitter = true
	case models.EventDueDateExtended, models.EventAppealClosed, models.EventApprovalDecided:
		toSubmitter = true
	default:
		return nil, fmt.Errorf("unknown event kind %q", event.Kind)
	}

	seen := make(map[string]struct{})
	var out []models.Submitter
	add := func(recipient models.Submitter) {
		if _, ok := seen[recipient.ID]; ok {
			return
		}
		seen[recipient.ID] = struct{}{}
		out = append(out, recipient)
	}

	if toReviewers && event.DistrictID > 0 {
		reviewers, err := s.directory.ListReviewersByDistrict(ctx, event.DistrictID)
		if err != nil {
			return nil, err
		}
		for _, reviewer := range reviewers {
			add(reviewer)
		}
	}
	if toSubmitter && event.SubmitterID != "" {
		submitter, err := s.directory.FindSubmitterByID(ctx, event.SubmitterID)
		if err != nil {
			return nil, err
		}
		if submitter != nil {
			add(*submitter)
		}
	}
	return out, nil
}

// enrich attaches district names so notifiers can render either locale.
func (s *NotificationService) enrich(ctx context.Context, event *models.AppealEvent, cache map[int64]*models.District) {
	if s.districts == nil {
		return
	}
	lookup := func(id int64) *models.District {
		if id <= 0 {
			return nil
		}
		if district, ok := cache[id]; ok {
			return district
		}
		district, err := s.districts.FindDistrictByID(ctx, id)
		if err != nil {
			s.logger.Warn("load district for notification failed", zap.Int64("district_id", id), zap.Error(err))
			return nil
		}
		cache[id] = district
		return district
	}
	event.District = lookup(event.DistrictID)
	if event.FromDistrictID != nil {
		event.FromDistrict = lookup(*event.FromDistrictID)
	}
}
