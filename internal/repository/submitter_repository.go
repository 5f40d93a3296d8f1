package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/appeal-desk-api/internal/models"
)

const submitterSelect = `SELECT u.id, u.channel_id, COALESCE(u.type, '') AS type, u.full_name, u.phone, u.language,
       u.district_id, b.bank_account_district_id
	FROM users u
	LEFT JOIN user_business_info b ON b.user_id = u.id`

// SubmitterRepository is a read-only directory over registered users.
type SubmitterRepository struct {
	db *sqlx.DB
}

// NewSubmitterRepository constructs the directory.
func NewSubmitterRepository(db *sqlx.DB) *SubmitterRepository {
	return &SubmitterRepository{db: db}
}

// FindSubmitterByID returns nil when the user does not exist.
func (r *SubmitterRepository) FindSubmitterByID(ctx context.Context, id string) (*models.Submitter, error) {
	return r.findOne(ctx, submitterSelect+` WHERE u.id = $1`, id)
}

// FindSubmitterByChannelID resolves a user by the chat channel identifier.
func (r *SubmitterRepository) FindSubmitterByChannelID(ctx context.Context, channelID int64) (*models.Submitter, error) {
	return r.findOne(ctx, submitterSelect+` WHERE u.channel_id = $1`, channelID)
}

// ListReviewersByDistrict returns moderators and admins attached to the district.
func (r *SubmitterRepository) ListReviewersByDistrict(ctx context.Context, districtID int64) ([]models.Submitter, error) {
	query := submitterSelect + ` WHERE u.district_id = $1 AND u.type IN ('moderator', 'admin') ORDER BY u.full_name ASC`
	var reviewers []models.Submitter
	if err := r.db.SelectContext(ctx, &reviewers, query, districtID); err != nil {
		return nil, fmt.Errorf("list reviewers by district: %w", err)
	}
	return reviewers, nil
}

func (r *SubmitterRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Submitter, error) {
	var submitter models.Submitter
	if err := r.db.GetContext(ctx, &submitter, query, arg); err != nil {
		if errors.Is(lookupError(err), sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get submitter: %w", err)
	}
	return &submitter, nil
}
