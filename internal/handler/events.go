package handler

import (
	"context"

	"github.com/noah-isme/appeal-desk-api/internal/models"
)

// eventDispatcher receives events of committed operations. It never fails the request.
type eventDispatcher interface {
	Dispatch(ctx context.Context, events []models.AppealEvent) int
}
