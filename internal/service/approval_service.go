package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/appeal-desk-api/internal/dto"
	"github.com/noah-isme/appeal-desk-api/internal/models"
	"github.com/noah-isme/appeal-desk-api/internal/repository"
	"github.com/noah-isme/appeal-desk-api/pkg/clock"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
)

type approvalRepository interface {
	appealTxRunner
	ListPendingRequests(ctx context.Context, districtID int64) ([]models.ApprovalRequest, error)
}

// ApprovalService manages requests to file a concurrent appeal.
type ApprovalService struct {
	repo       approvalRepository
	submitters submitterLookup
	calendar   *clock.Calendar
	router     RoutingResolver
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewApprovalService constructs the approval service.
func NewApprovalService(repo approvalRepository, submitters submitterLookup, calendar *clock.Calendar, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if calendar == nil {
		calendar = clock.NewCalendarIn(clock.System{}, time.UTC)
	}
	return &ApprovalService{
		repo:       repo,
		submitters: submitters,
		calendar:   calendar,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
	}
}

// RequestApproval opens a pending request. Only a submitter with an active appeal
// may ask, and only one pending request is held at a time.
func (s *ApprovalService) RequestApproval(ctx context.Context, req dto.RequestApprovalRequest) (*models.LifecycleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.fail("request approval", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval request payload"))
	}
	submitter, err := lookupSubmitter(ctx, s.submitters, req.SubmitterID, req.ChannelID)
	if err != nil {
		return nil, s.fail("load submitter", err)
	}
	districtID, err := s.router.ResolveDistrict(submitter)
	if err != nil {
		return nil, s.fail("route approval request", err)
	}

	now := s.calendar.Now().UTC()
	request := &models.ApprovalRequest{
		SubmitterID: submitter.ID,
		Status:      models.ApprovalRequestPending,
		CreatedAt:   now,
	}
	err = s.repo.InTx(ctx, func(store repository.AppealStore) error {
		if err := store.LockSubmitter(ctx, submitter.ID); err != nil {
			return err
		}
		active, err := store.CountActiveBySubmitter(ctx, submitter.ID)
		if err != nil {
			return err
		}
		if active == 0 {
			return appErrors.Clone(appErrors.ErrNoActiveAppeal, "")
		}
		pending, err := store.FindRequestByStatus(ctx, submitter.ID, models.ApprovalRequestPending)
		if err != nil {
			return err
		}
		if pending != nil {
			return appErrors.Clone(appErrors.ErrDuplicateApprovalRequest, "")
		}
		if err := store.InsertApprovalRequest(ctx, request); err != nil {
			if errors.Is(err, repository.ErrPendingRequestExists) {
				return appErrors.Clone(appErrors.ErrDuplicateApprovalRequest, "")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("request approval", err)
	}

	s.logger.Info("approval requested", zap.String("request_id", request.ID), zap.String("submitter_id", submitter.ID))

	return &models.LifecycleResult{
		Request: request,
		Events: []models.AppealEvent{{
			Kind:        models.EventApprovalRequested,
			SubmitterID: submitter.ID,
			ActorID:     &submitter.ID,
			DistrictID:  districtID,
			RequestID:   request.ID,
			OccurredAt:  now,
		}},
	}, nil
}

// ApproveRequest lets the submitter file one more appeal.
func (s *ApprovalService) ApproveRequest(ctx context.Context, id string, req dto.ResolveApprovalRequest) (*models.LifecycleResult, error) {
	return s.resolve(ctx, id, req, models.ApprovalRequestApproved)
}

// RejectRequest refuses a pending request.
func (s *ApprovalService) RejectRequest(ctx context.Context, id string, req dto.ResolveApprovalRequest) (*models.LifecycleResult, error) {
	return s.resolve(ctx, id, req, models.ApprovalRequestRejected)
}

// ListPending returns pending requests from submitters routed to the district.
func (s *ApprovalService) ListPending(ctx context.Context, districtID int64) ([]models.ApprovalRequest, error) {
	if districtID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "districtId is required")
	}
	requests, err := s.repo.ListPendingRequests(ctx, districtID)
	if err != nil {
		return nil, s.fail("list approval requests", err)
	}
	return requests, nil
}

func (s *ApprovalService) resolve(ctx context.Context, id string, req dto.ResolveApprovalRequest, decision models.ApprovalRequestStatus) (*models.LifecycleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.fail("resolve approval request", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload"))
	}

	now := s.calendar.Now().UTC()
	var request *models.ApprovalRequest
	err := s.repo.InTx(ctx, func(store repository.AppealStore) error {
		var err error
		request, err = store.GetApprovalRequestForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("approval request not found", zap.String("request_id", id))
				return appErrors.Clone(appErrors.ErrApprovalRequestNotFound, "")
			}
			return err
		}
		if request.Status != models.ApprovalRequestPending {
			return appErrors.Clone(appErrors.ErrRequestAlreadyResolved, "")
		}

		moderatorID := req.ModeratorID
		request.Status = decision
		request.ModeratorID = &moderatorID
		request.Reason = optional(trimmed(req.Reason))
		request.ResolvedAt = &now
		if err := store.ResolveApprovalRequest(ctx, request); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrRequestAlreadyResolved, "")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("resolve approval request", err)
	}

	approved := decision == models.ApprovalRequestApproved
	s.logger.Info("approval request resolved",
		zap.String("request_id", request.ID),
		zap.String("status", string(request.Status)),
		zap.String("moderator_id", req.ModeratorID),
	)

	return &models.LifecycleResult{
		Request: request,
		Events: []models.AppealEvent{{
			Kind:        models.EventApprovalDecided,
			SubmitterID: request.SubmitterID,
			ActorID:     request.ModeratorID,
			RequestID:   request.ID,
			Approved:    &approved,
			Reason:      request.Reason,
			OccurredAt:  now,
		}},
	}, nil
}

func (s *ApprovalService) fail(operation string, err error) error {
	return classify(s.logger, s.metrics, operation, err)
}
