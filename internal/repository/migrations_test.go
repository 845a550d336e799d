package repository

import (
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	upSQL, err := io.ReadAll(up)
	require.NoError(t, up.Close())
	require.NoError(t, err)

	assert.Contains(t, string(upSQL), "CREATE EXTENSION IF NOT EXISTS vector")
	assert.Contains(t, string(upSQL), "vector(768)")
	assert.Contains(t, string(upSQL), "UNIQUE (document_id, chunk_index)")
	assert.NotContains(t, string(upSQL), "USING hnsw", "folder-scoped search must stay exact")

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	downSQL, err := io.ReadAll(down)
	require.NoError(t, down.Close())
	require.NoError(t, err)

	assert.Contains(t, string(downSQL), "DROP TABLE IF EXISTS chunks")
	assert.NotContains(t, string(downSQL), "folders", "folders belongs to the folder service")
}

func TestPreviousVersion(t *testing.T) {
	assert.Equal(t, database.NilVersion, previousVersion(1))
	assert.Equal(t, database.NilVersion, previousVersion(0))
	assert.Equal(t, 2, previousVersion(3))
}
