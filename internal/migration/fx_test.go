package migration

import (
	"context"
	"io/fs"
	"testing"

	"github.com/mandarons/wapar/pkg/db"
	"github.com/mandarons/wapar/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestApplyMigratesModelsOnSQLite(t *testing.T) {
	conn := dbtest.Open(t)

	require.NoError(t, Apply(context.Background(), conn, db.DefaultRetryPolicy(), zap.NewNop()))

	assert.True(t, conn.Migrator().HasTable("installations"))
	assert.True(t, conn.Migrator().HasTable("heartbeats"))
	assert.True(t, conn.Migrator().HasIndex("heartbeats", "idx_heartbeats_installation_created"))

	// idempotent
	require.NoError(t, Apply(context.Background(), conn, db.DefaultRetryPolicy(), zap.NewNop()))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["000001_init.up.sql"])
	assert.True(t, names["000001_init.down.sql"])
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	_, err := RunMigrations(nil)
	require.Error(t, err)
}

func TestEmbeddedSourceStartsAtInit(t *testing.T) {
	src, err := newSource()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, name, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "init", name)
}
