package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/appeal-desk-api/internal/models"
)

var submitterRowColumns = []string{"id", "channel_id", "type", "full_name", "phone", "language", "district_id", "bank_account_district_id"}

func newDirectoryMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestSubmitterRepositoryFindBusinessSubmitter(t *testing.T) {
	db, mock := newDirectoryMock(t)
	repo := NewSubmitterRepository(db)

	rows := sqlmock.NewRows(submitterRowColumns).
		AddRow("sub-1", int64(1001), "business", "Acme LLC", "+998900000000", "ru", int64(3), int64(7))
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN user_business_info b ON b.user_id = u.id WHERE u.id = $1")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	submitter, err := repo.FindSubmitterByID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.NotNil(t, submitter)
	assert.Equal(t, models.SubmitterBusiness, submitter.Type)
	require.NotNil(t, submitter.BankAccountDistrictID)
	assert.Equal(t, int64(7), *submitter.BankAccountDistrictID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitterRepositoryFindByChannelMissing(t *testing.T) {
	db, mock := newDirectoryMock(t)
	repo := NewSubmitterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.channel_id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(submitterRowColumns))

	submitter, err := repo.FindSubmitterByChannelID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, submitter)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitterRepositoryListReviewers(t *testing.T) {
	db, mock := newDirectoryMock(t)
	repo := NewSubmitterRepository(db)

	rows := sqlmock.NewRows(submitterRowColumns).
		AddRow("mod-1", int64(1), "moderator", "Aziza", "+1", "uz", int64(9), nil).
		AddRow("adm-1", int64(2), "admin", "Bobur", "+2", "ru", int64(9), nil)
	mock.ExpectQuery(regexp.QuoteMeta("u.type IN ('moderator', 'admin')")).
		WithArgs(int64(9)).
		WillReturnRows(rows)

	reviewers, err := repo.ListReviewersByDistrict(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, reviewers, 2)
	assert.True(t, reviewers[1].Type.IsReviewer())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistrictRepositoryFind(t *testing.T) {
	db, mock := newDirectoryMock(t)
	repo := NewDistrictRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name_uz, name_ru, is_central FROM districts WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name_uz", "name_ru", "is_central"}).AddRow(int64(9), "Chilonzor", "Чиланзар", false))

	district, err := repo.FindDistrictByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Чиланзар", district.Name("ru"))
	assert.Equal(t, "Chilonzor", district.Name("uz"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitterRepositoryMalformedIDIsUnknown(t *testing.T) {
	db, mock := newDirectoryMock(t)
	repo := NewSubmitterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.id = $1")).
		WithArgs("sub-1").
		WillReturnError(&pq.Error{Code: "22P02"})

	submitter, err := repo.FindSubmitterByID(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Nil(t, submitter)
	require.NoError(t, mock.ExpectationsWereMet())
}
