package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/appeal-desk-api/internal/models"
	"github.com/noah-isme/appeal-desk-api/internal/service"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
)

type reminderRunnerStub struct {
	result *models.ScanResult
	err    error
}

func (s reminderRunnerStub) RunOnce(ctx context.Context) (*models.ScanResult, error) {
	return s.result, s.err
}

func newReminderRouter(runner reminderRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/reminders/scan", NewReminderHandler(runner).Scan)
	return r
}

func TestReminderHandlerScan(t *testing.T) {
	r := newReminderRouter(reminderRunnerStub{result: &models.ScanResult{
		OverdueCount: 1,
		Reminded:     []models.ReminderNotice{{AppealID: "ap-1", DaysRemaining: 2, Kind: models.EventDeadlineReminder}},
	}})

	w := perform(r, http.MethodPost, "/reminders/scan", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"overdueCount":1`)
}

func TestReminderHandlerLockHeld(t *testing.T) {
	r := newReminderRouter(reminderRunnerStub{err: appErrors.Clone(appErrors.ErrLockHeld, "")})

	w := perform(r, http.MethodPost, "/reminders/scan", "")

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "LOCK_HELD", decodeError(t, w))
}

func TestReminderHandlerStoreFailure(t *testing.T) {
	r := newReminderRouter(reminderRunnerStub{err: errors.New("connection refused")})

	w := perform(r, http.MethodPost, "/reminders/scan", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

type pingerStub struct{ err error }

func (p pingerStub) PingContext(ctx context.Context) error { return p.err }

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	up := NewMetricsHandler(service.NewMetricsService(), pingerStub{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	up.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	down := NewMetricsHandler(nil, pingerStub{err: errors.New("down")})
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	down.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	down.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	metrics.RecordTransition(models.AppealActionCreated)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(metrics, nil).Prometheus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "appeal_transitions_total")
}
