package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/appeal-desk-api/pkg/config"
)

func TestMigrationsAreEmbeddedInOrder(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	prev := ""
	for _, entry := range entries {
		name := entry.Name()
		assert.True(t, strings.HasSuffix(name, ".sql"), name)
		assert.Greater(t, name, prev)
		prev = name

		raw, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "-- +goose Up", name)
		assert.Contains(t, string(raw), "-- +goose Down", name)
	}
}

func TestApprovalRequestsHavePendingUniqueIndex(t *testing.T) {
	raw, err := fs.ReadFile(migrationsFS, migrationsDir+"/00004_create_approval_requests.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "WHERE status = 'pending'")
}

func TestAppealHistoryForeignKeysRestrictDeletes(t *testing.T) {
	for _, name := range []string{"00002_create_users.sql", "00003_create_appeals.sql", "00004_create_approval_requests.sql"} {
		raw, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
		require.NoError(t, err)
		sql := string(raw)
		assert.Contains(t, sql, "ON DELETE RESTRICT", name)
		assert.NotContains(t, sql, "ON DELETE CASCADE", name)
		assert.NotContains(t, sql, "ON DELETE SET NULL", name)
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "appeals", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=appeals sslmode=disable", dsn)
}
