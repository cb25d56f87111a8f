package service

import (
	"context"

	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/models"
)

type UserAdmin interface {
	ListUsers(ctx context.Context, exclude uint, offset, limit int) (int64, []models.User, error)
	SetUserRole(ctx context.Context, id uint, role models.Role) (*models.User, error)
}

type AdminService struct {
	Users  UserAdmin
	Auth   *AuthService
	Events Events
}

func (s *AdminService) ListUsers(ctx context.Context, callerID uint, offset, limit int) (int64, []models.User, error) {
	return s.Users.ListUsers(ctx, callerID, offset, limit)
}

// SetRole changes a user's role and ends their sessions, so the new role is
// carried by the next token they obtain by logging in.
func (s *AdminService) SetRole(ctx context.Context, userID uint, role models.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "admin.set_role", "user_id", userID)

	user, err := s.Users.SetUserRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	n, err := s.Auth.RevokeSessions(ctx, userID)
	if err != nil {
		l.Errorw("revoke_sessions_failed", "error", err)
		return nil, err
	}

	l.Infow("role_changed", "role", role, "revoked", n)
	s.Events.emit(ctx, Event{Type: EventRoleChanged, UserID: userID, Role: role, Revoked: n})
	return user, nil
}
