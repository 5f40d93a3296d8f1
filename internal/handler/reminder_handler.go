package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/appeal-desk-api/internal/models"
	"github.com/noah-isme/appeal-desk-api/pkg/response"
)

type reminderRunner interface {
	RunOnce(ctx context.Context) (*models.ScanResult, error)
}

// ReminderHandler lets operators trigger the deadline scan outside its schedule.
type ReminderHandler struct {
	runner reminderRunner
}

// NewReminderHandler builds a new handler.
func NewReminderHandler(runner reminderRunner) *ReminderHandler {
	return &ReminderHandler{runner: runner}
}

// Scan godoc
// @Summary Run the deadline scan now
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reminders/scan [post]
func (h *ReminderHandler) Scan(c *gin.Context) {
	result, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
