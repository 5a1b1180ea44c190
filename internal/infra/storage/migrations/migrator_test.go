package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(embedMigrations, migrationsDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for _, e := range entries {
		content, err := fs.ReadFile(embedMigrations, migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(content), "-- +goose Up", e.Name())
		assert.Contains(t, string(content), "-- +goose Down", e.Name())
	}

	bookings, err := fs.ReadFile(embedMigrations, migrationsDir+"/00002_bookings.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(bookings), "bookings_no_overlap"))
}
