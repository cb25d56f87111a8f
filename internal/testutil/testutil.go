// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/museum/internal/hash"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/pkg/db"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite://file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// CreateUser stores a user with a bcrypt hash of password.
func CreateUser(t *testing.T, gdb *gorm.DB, email, password string, role models.Role) *models.User {
	t.Helper()

	h, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		Email:        email,
		PasswordHash: h,
		Role:         role,
		Name:         "Test",
		Surname:      "User",
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}
