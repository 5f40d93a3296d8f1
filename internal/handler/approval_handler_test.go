package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/appeal-desk-api/internal/dto"
	"github.com/noah-isme/appeal-desk-api/internal/models"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
)

type approvalServiceMock struct {
	result   *models.LifecycleResult
	err      error
	pending  []models.ApprovalRequest
	district int64
	decided  string
	lastID   string
}

func (m *approvalServiceMock) RequestApproval(ctx context.Context, req dto.RequestApprovalRequest) (*models.LifecycleResult, error) {
	return m.result, m.err
}

func (m *approvalServiceMock) ApproveRequest(ctx context.Context, id string, req dto.ResolveApprovalRequest) (*models.LifecycleResult, error) {
	m.decided, m.lastID = "approve", id
	return m.result, m.err
}

func (m *approvalServiceMock) RejectRequest(ctx context.Context, id string, req dto.ResolveApprovalRequest) (*models.LifecycleResult, error) {
	m.decided, m.lastID = "reject", id
	return m.result, m.err
}

func (m *approvalServiceMock) ListPending(ctx context.Context, districtID int64) ([]models.ApprovalRequest, error) {
	m.district = districtID
	return m.pending, m.err
}

func newApprovalRouter(svc approvalService, dispatcher eventDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewApprovalHandler(svc, dispatcher)
	r := gin.New()
	r.POST("/approval-requests", h.Request)
	r.GET("/approval-requests", h.ListPending)
	r.POST("/approval-requests/:id/approve", h.Approve)
	r.POST("/approval-requests/:id/reject", h.Reject)
	return r
}

func TestApprovalHandlerRequestCreated(t *testing.T) {
	svc := &approvalServiceMock{result: &models.LifecycleResult{
		Request: &models.ApprovalRequest{ID: "req-1", Status: models.ApprovalRequestPending},
		Events:  []models.AppealEvent{{Kind: models.EventApprovalRequested}},
	}}
	dispatcher := &dispatchRecorder{}
	r := newApprovalRouter(svc, dispatcher)

	w := perform(r, http.MethodPost, "/approval-requests", `{"channelId":5001}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, dispatcher.events, 1)
}

func TestApprovalHandlerDuplicateRequest(t *testing.T) {
	svc := &approvalServiceMock{err: appErrors.Clone(appErrors.ErrDuplicateApprovalRequest, "")}
	dispatcher := &dispatchRecorder{}
	r := newApprovalRouter(svc, dispatcher)

	w := perform(r, http.MethodPost, "/approval-requests", `{"submitterId":"sub-1"}`)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_APPROVAL_REQUEST", decodeError(t, w))
	assert.Empty(t, dispatcher.events)
}

func TestApprovalHandlerListPending(t *testing.T) {
	svc := &approvalServiceMock{pending: []models.ApprovalRequest{{ID: "req-1"}}}
	r := newApprovalRouter(svc, nil)

	w := perform(r, http.MethodGet, "/approval-requests?districtId=7", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), svc.district)
	assert.Contains(t, w.Body.String(), "req-1")
}

func TestApprovalHandlerResolve(t *testing.T) {
	for _, decision := range []string{"approve", "reject"} {
		t.Run(decision, func(t *testing.T) {
			svc := &approvalServiceMock{result: &models.LifecycleResult{Request: &models.ApprovalRequest{ID: "req-1"}}}
			r := newApprovalRouter(svc, &dispatchRecorder{})

			w := perform(r, http.MethodPost, "/approval-requests/req-1/"+decision, `{"moderatorId":"mod-7"}`)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, decision, svc.decided)
			assert.Equal(t, "req-1", svc.lastID)
		})
	}
}

func TestApprovalHandlerAlreadyResolved(t *testing.T) {
	svc := &approvalServiceMock{err: appErrors.Clone(appErrors.ErrRequestAlreadyResolved, "")}
	r := newApprovalRouter(svc, nil)

	w := perform(r, http.MethodPost, "/approval-requests/req-1/approve", `{"moderatorId":"mod-7"}`)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "REQUEST_ALREADY_RESOLVED", decodeError(t, w))
}
