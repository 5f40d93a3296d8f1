package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/appeal-desk-api/internal/models"
)

// DistrictRepository reads district reference data.
type DistrictRepository struct {
	db *sqlx.DB
}

// NewDistrictRepository constructs the repository.
func NewDistrictRepository(db *sqlx.DB) *DistrictRepository {
	return &DistrictRepository{db: db}
}

// FindDistrictByID returns nil when the district does not exist.
func (r *DistrictRepository) FindDistrictByID(ctx context.Context, id int64) (*models.District, error) {
	const query = `SELECT id, name_uz, name_ru, is_central FROM districts WHERE id = $1`
	var district models.District
	if err := r.db.GetContext(ctx, &district, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get district: %w", err)
	}
	return &district, nil
}

// List returns every district ordered by name.
func (r *DistrictRepository) List(ctx context.Context) ([]models.District, error) {
	const query = `SELECT id, name_uz, name_ru, is_central FROM districts ORDER BY name_uz ASC`
	var districts []models.District
	if err := r.db.SelectContext(ctx, &districts, query); err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return districts, nil
}
