package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/appeal-desk-api/internal/dto"
	"github.com/noah-isme/appeal-desk-api/internal/models"
	"github.com/noah-isme/appeal-desk-api/internal/repository"
	"github.com/noah-isme/appeal-desk-api/pkg/clock"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
)

type appealTxRunner interface {
	InTx(ctx context.Context, fn func(store repository.AppealStore) error) error
}

type appealRepository interface {
	appealTxRunner
	GetAppeal(ctx context.Context, id string) (*models.Appeal, error)
	ListAppeals(ctx context.Context, filter models.AppealFilter) ([]models.Appeal, error)
	ListLogs(ctx context.Context, appealID string) ([]models.AppealLog, error)
	LatestAnswer(ctx context.Context, appealID string) (*models.AppealAnswer, error)
}

type submitterLookup interface {
	FindSubmitterByID(ctx context.Context, id string) (*models.Submitter, error)
	FindSubmitterByChannelID(ctx context.Context, channelID int64) (*models.Submitter, error)
}

// AppealServiceConfig holds lifecycle constants.
type AppealServiceConfig struct {
	GracePeriodDays int
}

// AppealService runs the appeal state machine. Every operation commits its rows in
// one transaction and returns the events the caller should dispatch afterwards.
type AppealService struct {
	repo       appealRepository
	submitters submitterLookup
	calendar   *clock.Calendar
	router     RoutingResolver
	numbers    NumberingAuthority
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	graceDays  int
}

// NewAppealService constructs the lifecycle engine.
func NewAppealService(repo appealRepository, submitters submitterLookup, calendar *clock.Calendar, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg AppealServiceConfig) *AppealService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if calendar == nil {
		calendar = clock.NewCalendarIn(clock.System{}, time.UTC)
	}
	if cfg.GracePeriodDays <= 0 {
		cfg.GracePeriodDays = 15
	}
	return &AppealService{
		repo:       repo,
		submitters: submitters,
		calendar:   calendar,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		graceDays:  cfg.GracePeriodDays,
	}
}

// Create files a new appeal. A submitter with an active appeal needs an approved
// approval request, which is consumed by this creation.
func (s *AppealService) Create(ctx context.Context, req dto.CreateAppealRequest) (*models.LifecycleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.fail("create appeal", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appeal payload"))
	}
	text := trimmed(req.Text)
	if text == "" && len(req.Files) == 0 {
		return nil, s.fail("create appeal", appErrors.Clone(appErrors.ErrValidation, "appeal must contain text or at least one file"))
	}

	submitter, err := lookupSubmitter(ctx, s.submitters, req.SubmitterID, req.ChannelID)
	if err != nil {
		if errors.Is(err, appErrors.ErrSubmitterNotFound) {
			s.logger.Warn("appeal submitter not found", zap.String("submitter_id", req.SubmitterID), zap.Int64("channel_id", req.ChannelID))
		}
		return nil, s.fail("load submitter", err)
	}

	customNumber := trimmed(req.AppealNumber)
	if customNumber != "" && submitter.Type != models.SubmitterGovernment {
		return nil, s.fail("create appeal", appErrors.Clone(appErrors.ErrCustomNumberNotPermitted, ""))
	}

	districtID, err := s.router.ResolveDistrict(submitter)
	if err != nil {
		return nil, s.fail("route appeal", err)
	}

	now := s.calendar.Now().UTC()
	dueDate := s.calendar.DaysFromToday(s.graceDays)
	appeal := &models.Appeal{
		SubmitterID: submitter.ID,
		DistrictID:  districtID,
		Text:        optional(text),
		Files:       models.Attachments(req.Files),
		Status:      models.AppealStatusNew,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	consumed := false
	err = s.repo.InTx(ctx, func(store repository.AppealStore) error {
		if err := store.LockSubmitter(ctx, submitter.ID); err != nil {
			return err
		}
		active, err := store.CountActiveBySubmitter(ctx, submitter.ID)
		if err != nil {
			return err
		}
		var approval *models.ApprovalRequest
		if active > 0 {
			approval, err = store.FindRequestByStatus(ctx, submitter.ID, models.ApprovalRequestApproved)
			if err != nil {
				return err
			}
			if approval == nil {
				return appErrors.Clone(appErrors.ErrActiveAppealExists, "")
			}
		}

		number := customNumber
		if number == "" {
			number, err = s.numbers.Next(ctx, store, s.calendar.Year())
			if err != nil {
				return err
			}
		}
		appeal.AppealNumber = number

		if err := store.InsertAppeal(ctx, appeal); err != nil {
			if errors.Is(err, repository.ErrAppealNumberTaken) {
				return appErrors.Clone(appErrors.ErrDuplicateAppealNumber, fmt.Sprintf("appeal number %s already in use", number))
			}
			return err
		}
		if err := store.InsertLog(ctx, &models.AppealLog{
			AppealID:     appeal.ID,
			Action:       models.AppealActionCreated,
			ToDistrictID: &districtID,
			NewDueDate:   &dueDate,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		if approval != nil {
			consumed = true
			return store.DeleteApprovalRequest(ctx, approval.ID)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("create appeal", err)
	}

	s.metrics.RecordTransition(models.AppealActionCreated)
	s.logger.Info("appeal created",
		zap.String("appeal_id", appeal.ID),
		zap.String("appeal_number", appeal.AppealNumber),
		zap.Int64("district_id", appeal.DistrictID),
		zap.Bool("approval_consumed", consumed),
	)

	return &models.LifecycleResult{
		Appeal: appeal,
		Events: []models.AppealEvent{appealEvent(models.EventAppealCreated, appeal, nil, now)},
	}, nil
}

// Forward reassigns an active appeal to another district.
func (s *AppealService) Forward(ctx context.Context, appealID string, req dto.ForwardAppealRequest) (*models.LifecycleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.fail("forward appeal", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forward payload"))
	}

	now := s.calendar.Now().UTC()
	var (
		appeal       *models.Appeal
		fromDistrict int64
	)
	err := s.repo.InTx(ctx, func(store repository.AppealStore) error {
		var err error
		appeal, err = s.lockAppeal(ctx, store, appealID, models.AppealActionForwarded)
		if err != nil {
			return err
		}
		if appeal.DistrictID == req.DistrictID {
			return appErrors.Clone(appErrors.ErrValidation, "appeal already belongs to this district")
		}

		fromDistrict = appeal.DistrictID
		toDistrict := req.DistrictID
		appeal.DistrictID = toDistrict
		appeal.Status = models.AppealStatusForwarded
		appeal.UpdatedAt = now
		if err := store.UpdateAppeal(ctx, appeal); err != nil {
			return err
		}
		return store.InsertLog(ctx, &models.AppealLog{
			AppealID:       appeal.ID,
			Action:         models.AppealActionForwarded,
			FromDistrictID: &fromDistrict,
			ToDistrictID:   &toDistrict,
			ModeratorID:    &req.ModeratorID,
			Comment:        optional(trimmed(req.Comment)),
			CreatedAt:      now,
		})
	})
	if err != nil {
		return nil, s.fail("forward appeal", err)
	}

	s.metrics.RecordTransition(models.AppealActionForwarded)
	s.logger.Info("appeal forwarded",
		zap.String("appeal_id", appeal.ID),
		zap.Int64("from_district_id", fromDistrict),
		zap.Int64("to_district_id", appeal.DistrictID),
		zap.String("moderator_id", req.ModeratorID),
	)

	event := appealEvent(models.EventAppealForwarded, appeal, &req.ModeratorID, now)
	event.FromDistrictID = &fromDistrict
	return &models.LifecycleResult{Appeal: appeal, Events: []models.AppealEvent{event}}, nil
}

// Extend moves the due date of an active appeal. The new date must be after today.
func (s *AppealService) Extend(ctx context.Context, appealID string, req dto.ExtendAppealRequest) (*models.LifecycleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.fail("extend appeal", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extension payload"))
	}
	newDue, err := clock.ParseDate(req.DueDate)
	if err != nil {
		return nil, s.fail("extend appeal", appErrors.Wrap(err, appErrors.ErrInvalidDueDate.Code, appErrors.ErrInvalidDueDate.Status, "due date is not a valid date"))
	}
	if !s.calendar.IsFuture(newDue) {
		return nil, s.fail("extend appeal", appErrors.Clone(appErrors.ErrInvalidDueDate, ""))
	}

	now := s.calendar.Now().UTC()
	var (
		appeal *models.Appeal
		oldDue time.Time
	)
	err = s.repo.InTx(ctx, func(store repository.AppealStore) error {
		var err error
		appeal, err = s.lockAppeal(ctx, store, appealID, models.AppealActionExtended)
		if err != nil {
			return err
		}
		oldDue = appeal.DueDate
		appeal.DueDate = newDue
		appeal.UpdatedAt = now
		if err := store.UpdateAppeal(ctx, appeal); err != nil {
			return err
		}
		return store.InsertLog(ctx, &models.AppealLog{
			AppealID:    appeal.ID,
			Action:      models.AppealActionExtended,
			OldDueDate:  &oldDue,
			NewDueDate:  &newDue,
			ModeratorID: &req.ModeratorID,
			Comment:     optional(trimmed(req.Comment)),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, s.fail("extend appeal", err)
	}

	s.metrics.RecordTransition(models.AppealActionExtended)
	s.logger.Info("appeal due date extended",
		zap.String("appeal_id", appeal.ID),
		zap.String("old_due_date", clock.FormatDate(oldDue)),
		zap.String("new_due_date", clock.FormatDate(newDue)),
	)

	event := appealEvent(models.EventDueDateExtended, appeal, &req.ModeratorID, now)
	event.OldDueDate = &oldDue
	return &models.LifecycleResult{Appeal: appeal, Events: []models.AppealEvent{event}}, nil
}

// Close answers an appeal. Overdue appeals may be closed too.
func (s *AppealService) Close(ctx context.Context, appealID string, req dto.CloseAppealRequest) (*models.LifecycleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.fail("close appeal", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload"))
	}
	text := trimmed(req.Text)
	if text == "" && len(req.Files) == 0 {
		return nil, s.fail("close appeal", appErrors.Clone(appErrors.ErrValidation, "answer must contain text or at least one file"))
	}

	now := s.calendar.Now().UTC()
	var (
		appeal *models.Appeal
		answer *models.AppealAnswer
	)
	err := s.repo.InTx(ctx, func(store repository.AppealStore) error {
		var err error
		appeal, err = s.lockAppeal(ctx, store, appealID, models.AppealActionClosed)
		if err != nil {
			return err
		}
		moderatorID := req.ModeratorID
		appeal.Status = models.AppealStatusClosed
		appeal.ClosedByModeratorID = &moderatorID
		appeal.ClosedAt = &now
		appeal.UpdatedAt = now
		if err := store.UpdateAppeal(ctx, appeal); err != nil {
			return err
		}

		answer = &models.AppealAnswer{
			AppealID:       appeal.ID,
			ModeratorID:    moderatorID,
			Text:           optional(text),
			Files:          models.Attachments(req.Files),
			ApprovalStatus: models.AnswerPending,
			CreatedAt:      now,
		}
		if err := store.InsertAnswer(ctx, answer); err != nil {
			return err
		}
		return store.InsertLog(ctx, &models.AppealLog{
			AppealID:    appeal.ID,
			Action:      models.AppealActionClosed,
			ModeratorID: &moderatorID,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, s.fail("close appeal", err)
	}

	s.metrics.RecordTransition(models.AppealActionClosed)
	s.logger.Info("appeal closed",
		zap.String("appeal_id", appeal.ID),
		zap.String("answer_id", answer.ID),
		zap.String("moderator_id", req.ModeratorID),
	)

	event := appealEvent(models.EventAppealClosed, appeal, &req.ModeratorID, now)
	event.AnswerID = answer.ID
	event.AnswerText = answer.Text
	event.AnswerFiles = answer.Files
	return &models.LifecycleResult{Appeal: appeal, Answer: answer, Events: []models.AppealEvent{event}}, nil
}

// RejectAnswer records the submitter's rejection and reopens the appeal.
func (s *AppealService) RejectAnswer(ctx context.Context, answerID string, req dto.AnswerDecisionRequest) (*models.LifecycleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.fail("reject answer", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload"))
	}
	reason := trimmed(req.Reason)
	if reason == "" {
		return nil, s.fail("reject answer", appErrors.Clone(appErrors.ErrValidation, "rejection reason is required"))
	}

	now := s.calendar.Now().UTC()
	var (
		appeal *models.Appeal
		answer *models.AppealAnswer
	)
	err := s.repo.InTx(ctx, func(store repository.AppealStore) error {
		var err error
		answer, appeal, err = s.lockAnswer(ctx, store, answerID, req.SubmitterID)
		if err != nil {
			return err
		}
		if !appeal.Status.Allows(models.AppealActionReopened) {
			return invalidTransition(appeal.Status, models.AppealActionReopened)
		}

		answer.ApprovalStatus = models.AnswerRejected
		answer.RejectionReason = &reason
		answer.RejectedAt = &now
		if err := store.UpdateAnswer(ctx, answer); err != nil {
			return err
		}

		appeal.Status = models.AppealStatusReopened
		appeal.RejectionCount++
		appeal.ClosedByModeratorID = nil
		appeal.ClosedAt = nil
		appeal.UpdatedAt = now
		if err := store.UpdateAppeal(ctx, appeal); err != nil {
			return err
		}
		return store.InsertLog(ctx, &models.AppealLog{
			AppealID:  appeal.ID,
			Action:    models.AppealActionReopened,
			Comment:   &reason,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, s.fail("reject answer", err)
	}

	s.metrics.RecordTransition(models.AppealActionReopened)
	s.logger.Info("answer rejected, appeal reopened",
		zap.String("appeal_id", appeal.ID),
		zap.String("answer_id", answer.ID),
		zap.Int("rejection_count", appeal.RejectionCount),
	)

	event := appealEvent(models.EventAnswerRejected, appeal, &req.SubmitterID, now)
	event.AnswerID = answer.ID
	event.Reason = &reason
	return &models.LifecycleResult{Appeal: appeal, Answer: answer, Events: []models.AppealEvent{event}}, nil
}

// ApproveAnswer records the submitter's acceptance. The appeal stays closed.
func (s *AppealService) ApproveAnswer(ctx context.Context, answerID string, req dto.AnswerDecisionRequest) (*models.LifecycleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.fail("approve answer", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload"))
	}

	now := s.calendar.Now().UTC()
	var (
		appeal *models.Appeal
		answer *models.AppealAnswer
	)
	err := s.repo.InTx(ctx, func(store repository.AppealStore) error {
		var err error
		answer, appeal, err = s.lockAnswer(ctx, store, answerID, req.SubmitterID)
		if err != nil {
			return err
		}
		answer.ApprovalStatus = models.AnswerApproved
		answer.ApprovedAt = &now
		return store.UpdateAnswer(ctx, answer)
	})
	if err != nil {
		return nil, s.fail("approve answer", err)
	}

	s.logger.Info("answer approved", zap.String("appeal_id", appeal.ID), zap.String("answer_id", answer.ID))

	event := appealEvent(models.EventAnswerApproved, appeal, &req.SubmitterID, now)
	event.AnswerID = answer.ID
	return &models.LifecycleResult{Appeal: appeal, Answer: answer, Events: []models.AppealEvent{event}}, nil
}

// SweepOverdue moves every active appeal due before today to overdue and records an
// audit row for each. Re-running it on the same day changes nothing.
func (s *AppealService) SweepOverdue(ctx context.Context) ([]models.Appeal, error) {
	today := s.calendar.Today()
	now := s.calendar.Now().UTC()

	var flipped []models.Appeal
	err := s.repo.InTx(ctx, func(store repository.AppealStore) error {
		var err error
		flipped, err = store.MarkOverdue(ctx, today, now)
		if err != nil {
			return err
		}
		for i := range flipped {
			if err := store.InsertLog(ctx, &models.AppealLog{
				AppealID:  flipped[i].ID,
				Action:    models.AppealActionOverdue,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("sweep overdue appeals", err)
	}

	for range flipped {
		s.metrics.RecordTransition(models.AppealActionOverdue)
	}
	if len(flipped) > 0 {
		s.logger.Info("overdue sweep flipped appeals", zap.Int("count", len(flipped)), zap.String("today", clock.FormatDate(today)))
	}
	return flipped, nil
}

// Get returns an appeal with its latest answer.
func (s *AppealService) Get(ctx context.Context, id string) (*models.AppealDetail, error) {
	appeal, err := s.repo.GetAppeal(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("appeal not found", zap.String("appeal_id", id))
			return nil, appErrors.Clone(appErrors.ErrAppealNotFound, "")
		}
		return nil, s.fail("load appeal", err)
	}
	answer, err := s.repo.LatestAnswer(ctx, id)
	if err != nil {
		return nil, s.fail("load appeal answer", err)
	}
	return &models.AppealDetail{Appeal: appeal, Answer: answer}, nil
}

// List returns appeals for a moderator queue or a submitter history.
func (s *AppealService) List(ctx context.Context, query dto.AppealQuery) ([]models.Appeal, error) {
	for _, status := range query.Statuses {
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown appeal status %q", status))
		}
	}
	appeals, err := s.repo.ListAppeals(ctx, models.AppealFilter{
		DistrictID:  query.DistrictID,
		SubmitterID: query.SubmitterID,
		Statuses:    query.Statuses,
		Limit:       query.Limit,
		Offset:      query.Offset,
	})
	if err != nil {
		return nil, s.fail("list appeals", err)
	}
	return appeals, nil
}

// History returns the audit trail of an appeal in creation order.
func (s *AppealService) History(ctx context.Context, id string) ([]models.AppealLog, error) {
	if _, err := s.repo.GetAppeal(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAppealNotFound, "")
		}
		return nil, s.fail("load appeal", err)
	}
	logs, err := s.repo.ListLogs(ctx, id)
	if err != nil {
		return nil, s.fail("list appeal history", err)
	}
	return logs, nil
}

func (s *AppealService) lockAppeal(ctx context.Context, store repository.AppealStore, id string, action models.AppealAction) (*models.Appeal, error) {
	appeal, err := store.GetAppealForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("appeal not found", zap.String("appeal_id", id), zap.String("action", string(action)))
			return nil, appErrors.Clone(appErrors.ErrAppealNotFound, "")
		}
		return nil, err
	}
	if !appeal.Status.Allows(action) {
		return nil, invalidTransition(appeal.Status, action)
	}
	return appeal, nil
}

// lockAnswer loads a pending answer and its appeal, and checks the caller filed the appeal.
func (s *AppealService) lockAnswer(ctx context.Context, store repository.AppealStore, answerID, submitterID string) (*models.AppealAnswer, *models.Appeal, error) {
	answer, err := store.GetAnswerForUpdate(ctx, answerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("answer not found", zap.String("answer_id", answerID))
			return nil, nil, appErrors.Clone(appErrors.ErrAnswerNotFound, "")
		}
		return nil, nil, err
	}
	if answer.ApprovalStatus != models.AnswerPending {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("answer already %s", answer.ApprovalStatus))
	}
	appeal, err := store.GetAppealForUpdate(ctx, answer.AppealID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrAppealNotFound, "")
		}
		return nil, nil, err
	}
	if appeal.SubmitterID != submitterID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only the submitter may decide on this answer")
	}
	return answer, appeal, nil
}

// fail passes business errors through and wraps anything else as an internal store failure.
func (s *AppealService) fail(operation string, err error) error {
	return classify(s.logger, s.metrics, operation, err)
}

func classify(logger *zap.Logger, metrics *MetricsService, operation string, err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		if appErr.Status < 500 {
			metrics.RecordRejection(appErr.Code)
		}
		return appErr
	}
	if errors.Is(err, repository.ErrUnknownReference) {
		metrics.RecordRejection(appErrors.ErrValidation.Code)
		return appErrors.Clone(appErrors.ErrValidation, "unknown user or district referenced")
	}
	logger.Error("appeal store failure", zap.String("operation", operation), zap.Error(err))
	return appErrors.Internal(err, "failed to "+operation)
}

func lookupSubmitter(ctx context.Context, directory submitterLookup, id string, channelID int64) (*models.Submitter, error) {
	var (
		submitter *models.Submitter
		err       error
	)
	if id != "" {
		submitter, err = directory.FindSubmitterByID(ctx, id)
	} else {
		submitter, err = directory.FindSubmitterByChannelID(ctx, channelID)
	}
	if err != nil {
		return nil, err
	}
	if submitter == nil {
		return nil, appErrors.Clone(appErrors.ErrSubmitterNotFound, "")
	}
	return submitter, nil
}

func appealEvent(kind models.EventKind, appeal *models.Appeal, actorID *string, at time.Time) models.AppealEvent {
	due := appeal.DueDate
	return models.AppealEvent{
		Kind:         kind,
		AppealID:     appeal.ID,
		AppealNumber: appeal.AppealNumber,
		SubmitterID:  appeal.SubmitterID,
		ActorID:      actorID,
		DistrictID:   appeal.DistrictID,
		DueDate:      &due,
		OccurredAt:   at,
	}
}

func invalidTransition(status models.AppealStatus, action models.AppealAction) error {
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot apply %s to an appeal in status %s", action, status))
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
