package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
)

func TestAdminService_SetRoleRevokesSessions(t *testing.T) {
	env := newTestAuthService(t)
	ctx := context.Background()
	login := env.registerAndLogin(t, "alice@example.com")
	admin := &AdminService{Users: env.repo, Auth: env.svc, Events: env.svc.Events}

	u, err := admin.SetRole(ctx, login.User.ID, models.RoleCurator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCurator, u.Role)

	n, err := env.sessions.CountActive(ctx, login.User.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, env.events.Types(), EventRoleChanged)

	_, err = admin.SetRole(ctx, 999, models.RoleAdmin)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAdminService_ListUsersExcludesCaller(t *testing.T) {
	env := newTestAuthService(t)
	ctx := context.Background()
	alice := env.registerAndLogin(t, "alice@example.com")
	env.registerAndLogin(t, "bob@example.com")
	admin := &AdminService{Users: env.repo, Auth: env.svc}

	total, users, err := admin.ListUsers(ctx, alice.User.ID, 0, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0].Email)
}
