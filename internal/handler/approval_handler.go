package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/appeal-desk-api/internal/dto"
	"github.com/noah-isme/appeal-desk-api/internal/models"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
	"github.com/noah-isme/appeal-desk-api/pkg/response"
)

type approvalService interface {
	RequestApproval(ctx context.Context, req dto.RequestApprovalRequest) (*models.LifecycleResult, error)
	ApproveRequest(ctx context.Context, id string, req dto.ResolveApprovalRequest) (*models.LifecycleResult, error)
	RejectRequest(ctx context.Context, id string, req dto.ResolveApprovalRequest) (*models.LifecycleResult, error)
	ListPending(ctx context.Context, districtID int64) ([]models.ApprovalRequest, error)
}

// ApprovalHandler serves requests to file a concurrent appeal.
type ApprovalHandler struct {
	service    approvalService
	dispatcher eventDispatcher
}

// NewApprovalHandler builds a new handler.
func NewApprovalHandler(service approvalService, dispatcher eventDispatcher) *ApprovalHandler {
	return &ApprovalHandler{service: service, dispatcher: dispatcher}
}

// Request godoc
// @Summary Ask permission to file another appeal
// @Tags ApprovalRequests
// @Accept json
// @Produce json
// @Param payload body dto.RequestApprovalRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approval-requests [post]
func (h *ApprovalHandler) Request(c *gin.Context) {
	var req dto.RequestApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval request payload"))
		return
	}
	result, err := h.service.RequestApproval(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.publish(c, result)
	response.Created(c, result)
}

// ListPending godoc
// @Summary Pending approval requests for a district
// @Tags ApprovalRequests
// @Produce json
// @Param districtId query int true "District ID"
// @Success 200 {object} response.Envelope
// @Router /approval-requests [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	districtID, err := int64Query(c, "districtId")
	if err != nil {
		response.Error(c, err)
		return
	}
	requests, err := h.service.ListPending(c.Request.Context(), districtID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Approve godoc
// @Summary Approve a pending request
// @Tags ApprovalRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ResolveApprovalRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /approval-requests/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.resolve(c, h.service.ApproveRequest)
}

// Reject godoc
// @Summary Reject a pending request
// @Tags ApprovalRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ResolveApprovalRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /approval-requests/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.resolve(c, h.service.RejectRequest)
}

func (h *ApprovalHandler) resolve(c *gin.Context, decide func(context.Context, string, dto.ResolveApprovalRequest) (*models.LifecycleResult, error)) {
	var req dto.ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	result, err := decide(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.publish(c, result)
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *ApprovalHandler) publish(c *gin.Context, result *models.LifecycleResult) {
	if h.dispatcher == nil || result == nil || len(result.Events) == 0 {
		return
	}
	h.dispatcher.Dispatch(context.WithoutCancel(c.Request.Context()), result.Events)
}
