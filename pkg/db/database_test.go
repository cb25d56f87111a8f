package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/museum/internal/models"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	gdb, err := Open(context.Background(), "sqlite://file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(gdb))
	for _, m := range models.All() {
		assert.True(t, gdb.Migrator().HasTable(m))
	}
	require.NoError(t, Ping(context.Background(), gdb))
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
