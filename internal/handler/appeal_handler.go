package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/appeal-desk-api/internal/dto"
	"github.com/noah-isme/appeal-desk-api/internal/models"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
	"github.com/noah-isme/appeal-desk-api/pkg/response"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type appealService interface {
	Create(ctx context.Context, req dto.CreateAppealRequest) (*models.LifecycleResult, error)
	Forward(ctx context.Context, appealID string, req dto.ForwardAppealRequest) (*models.LifecycleResult, error)
	Extend(ctx context.Context, appealID string, req dto.ExtendAppealRequest) (*models.LifecycleResult, error)
	Close(ctx context.Context, appealID string, req dto.CloseAppealRequest) (*models.LifecycleResult, error)
	RejectAnswer(ctx context.Context, answerID string, req dto.AnswerDecisionRequest) (*models.LifecycleResult, error)
	ApproveAnswer(ctx context.Context, answerID string, req dto.AnswerDecisionRequest) (*models.LifecycleResult, error)
	Get(ctx context.Context, id string) (*models.AppealDetail, error)
	List(ctx context.Context, query dto.AppealQuery) ([]models.Appeal, error)
	History(ctx context.Context, id string) ([]models.AppealLog, error)
}

// AppealHandler exposes the appeal lifecycle to the conversational layer.
type AppealHandler struct {
	service    appealService
	dispatcher eventDispatcher
}

// NewAppealHandler builds a new handler.
func NewAppealHandler(service appealService, dispatcher eventDispatcher) *AppealHandler {
	return &AppealHandler{service: service, dispatcher: dispatcher}
}

// Create godoc
// @Summary File a new appeal
// @Tags Appeals
// @Accept json
// @Produce json
// @Param payload body dto.CreateAppealRequest true "Appeal payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appeals [post]
func (h *AppealHandler) Create(c *gin.Context) {
	var req dto.CreateAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appeal payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.publish(c, result)
	response.Created(c, result)
}

// List godoc
// @Summary List appeals
// @Tags Appeals
// @Produce json
// @Param districtId query int false "Owning district"
// @Param submitterId query string false "Submitter ID"
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /appeals [get]
func (h *AppealHandler) List(c *gin.Context) {
	query, err := parseAppealQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	appeals, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appeals, &response.Pagination{Limit: query.Limit, Offset: query.Offset, Count: len(appeals)})
}

// Get godoc
// @Summary Get an appeal with its latest answer
// @Tags Appeals
// @Produce json
// @Param id path string true "Appeal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appeals/{id} [get]
func (h *AppealHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// History godoc
// @Summary Appeal audit trail
// @Tags Appeals
// @Produce json
// @Param id path string true "Appeal ID"
// @Success 200 {object} response.Envelope
// @Router /appeals/{id}/logs [get]
func (h *AppealHandler) History(c *gin.Context) {
	logs, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Forward godoc
// @Summary Forward an appeal to another district
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path string true "Appeal ID"
// @Param payload body dto.ForwardAppealRequest true "Forward payload"
// @Success 200 {object} response.Envelope
// @Router /appeals/{id}/forward [post]
func (h *AppealHandler) Forward(c *gin.Context) {
	var req dto.ForwardAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid forward payload"))
		return
	}
	h.respond(c, func(ctx context.Context) (*models.LifecycleResult, error) {
		return h.service.Forward(ctx, c.Param("id"), req)
	})
}

// Extend godoc
// @Summary Extend an appeal's due date
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path string true "Appeal ID"
// @Param payload body dto.ExtendAppealRequest true "Extension payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appeals/{id}/extend [post]
func (h *AppealHandler) Extend(c *gin.Context) {
	var req dto.ExtendAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extension payload"))
		return
	}
	h.respond(c, func(ctx context.Context) (*models.LifecycleResult, error) {
		return h.service.Extend(ctx, c.Param("id"), req)
	})
}

// Close godoc
// @Summary Close an appeal with an answer
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path string true "Appeal ID"
// @Param payload body dto.CloseAppealRequest true "Answer payload"
// @Success 200 {object} response.Envelope
// @Router /appeals/{id}/close [post]
func (h *AppealHandler) Close(c *gin.Context) {
	var req dto.CloseAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answer payload"))
		return
	}
	h.respond(c, func(ctx context.Context) (*models.LifecycleResult, error) {
		return h.service.Close(ctx, c.Param("id"), req)
	})
}

// ApproveAnswer godoc
// @Summary Accept an answer
// @Tags Answers
// @Accept json
// @Produce json
// @Param id path string true "Answer ID"
// @Param payload body dto.AnswerDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /answers/{id}/approve [post]
func (h *AppealHandler) ApproveAnswer(c *gin.Context) {
	var req dto.AnswerDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	h.respond(c, func(ctx context.Context) (*models.LifecycleResult, error) {
		return h.service.ApproveAnswer(ctx, c.Param("id"), req)
	})
}

// RejectAnswer godoc
// @Summary Reject an answer and reopen the appeal
// @Tags Answers
// @Accept json
// @Produce json
// @Param id path string true "Answer ID"
// @Param payload body dto.AnswerDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /answers/{id}/reject [post]
func (h *AppealHandler) RejectAnswer(c *gin.Context) {
	var req dto.AnswerDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	h.respond(c, func(ctx context.Context) (*models.LifecycleResult, error) {
		return h.service.RejectAnswer(ctx, c.Param("id"), req)
	})
}

func (h *AppealHandler) respond(c *gin.Context, op func(ctx context.Context) (*models.LifecycleResult, error)) {
	result, err := op(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.publish(c, result)
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *AppealHandler) publish(c *gin.Context, result *models.LifecycleResult) {
	if h.dispatcher == nil || result == nil || len(result.Events) == 0 {
		return
	}
	h.dispatcher.Dispatch(context.WithoutCancel(c.Request.Context()), result.Events)
}

func parseAppealQuery(c *gin.Context) (dto.AppealQuery, error) {
	query := dto.AppealQuery{
		SubmitterID: strings.TrimSpace(c.Query("submitterId")),
		Limit:       defaultListLimit,
	}
	var err error
	if query.DistrictID, err = int64Query(c, "districtId"); err != nil {
		return query, err
	}
	limit, err := int64Query(c, "limit")
	if err != nil {
		return query, err
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if limit > 0 {
		query.Limit = int(limit)
	}
	offset, err := int64Query(c, "offset")
	if err != nil {
		return query, err
	}
	query.Offset = int(offset)

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Statuses = append(query.Statuses, models.AppealStatus(part))
			}
		}
	}
	return query, nil
}

func int64Query(c *gin.Context, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a non-negative integer")
	}
	return value, nil
}
