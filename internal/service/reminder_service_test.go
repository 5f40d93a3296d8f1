package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/appeal-desk-api/internal/models"
	appErrors "github.com/noah-isme/appeal-desk-api/pkg/errors"
)

func TestReminderServiceScan(t *testing.T) {
	repo := newMemAppealRepo()
	seedAppeal(repo, models.Appeal{ID: "ap-late", AppealNumber: "2025-000001", SubmitterID: "a", DistrictID: 7, Status: models.AppealStatusNew, DueDate: civil(2025, 3, 8)})
	seedAppeal(repo, models.Appeal{ID: "ap-soon", AppealNumber: "2025-000002", SubmitterID: "b", DistrictID: 9, Status: models.AppealStatusForwarded, DueDate: civil(2025, 3, 15)})
	seedAppeal(repo, models.Appeal{ID: "ap-later", AppealNumber: "2025-000003", SubmitterID: "c", DistrictID: 9, Status: models.AppealStatusNew, DueDate: civil(2025, 3, 16)})
	seedAppeal(repo, models.Appeal{ID: "ap-done", AppealNumber: "2025-000004", SubmitterID: "d", DistrictID: 7, Status: models.AppealStatusClosed, DueDate: civil(2025, 3, 1)})
	appeals, _ := newTestAppealService(repo)
	svc := NewReminderService(appeals, repo, testCalendar(), 5, NewMetricsService(), nil)

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OverdueCount)
	assert.Equal(t, models.AppealStatusOverdue, repo.appeals["ap-late"].Status)

	require.Len(t, result.Reminded, 2)
	assert.Equal(t, "ap-late", result.Reminded[0].AppealID)
	assert.Equal(t, -2, result.Reminded[0].DaysRemaining)
	assert.Equal(t, models.EventAppealOverdue, result.Reminded[0].Kind)
	assert.Equal(t, "ap-soon", result.Reminded[1].AppealID)
	assert.Equal(t, 5, result.Reminded[1].DaysRemaining)
	assert.Equal(t, models.EventDeadlineReminder, result.Reminded[1].Kind)

	require.Len(t, result.Events, 2)
	assert.Equal(t, 5, *result.Events[1].DaysRemaining)
	assert.Equal(t, int64(9), result.Events[1].DistrictID)

	again, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.OverdueCount)
	assert.Len(t, again.Reminded, 2)
}

func TestReminderServiceScanPropagatesStoreFailure(t *testing.T) {
	repo := newMemAppealRepo()
	repo.failOn = "ListDueForReminder"
	appeals, _ := newTestAppealService(repo)
	svc := NewReminderService(appeals, repo, testCalendar(), 5, nil, nil)

	_, err := svc.Scan(context.Background())
	require.ErrorIs(t, err, appErrors.ErrInternal)
}
