package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/appeal-desk-api/internal/repository"
)

const maxSequence = 999999

// NumberingAuthority issues <year>-<6 digit sequence> appeal numbers.
type NumberingAuthority struct{}

// Next takes the year's numbering lock inside the caller's transaction and returns the
// number following the greatest one issued this year. The lock is held until commit,
// so concurrent creations in the same year observe each other's inserts.
func (NumberingAuthority) Next(ctx context.Context, store repository.AppealStore, year int) (string, error) {
	if err := store.LockNumberingYear(ctx, year); err != nil {
		return "", err
	}
	latest, err := store.LatestNumberForYear(ctx, year)
	if err != nil {
		return "", err
	}
	return nextSequenceNumber(year, latest)
}

func nextSequenceNumber(year int, latest string) (string, error) {
	if latest == "" {
		return formatAppealNumber(year, 1), nil
	}
	prefix := fmt.Sprintf("%d-", year)
	if !strings.HasPrefix(latest, prefix) {
		return "", fmt.Errorf("appeal number %q does not belong to year %d", latest, year)
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
	if err != nil {
		return "", fmt.Errorf("parse appeal number %q: %w", latest, err)
	}
	if seq >= maxSequence {
		return "", fmt.Errorf("appeal numbers for %d are exhausted", year)
	}
	return formatAppealNumber(year, seq+1), nil
}

func formatAppealNumber(year, seq int) string {
	return fmt.Sprintf("%d-%06d", year, seq)
}
