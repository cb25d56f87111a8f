package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/hash"
	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/internal/repo"
	"github.com/Skotchmaster/museum/pkg/tokens"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type AuthService struct {
	Users    UserStore
	Sessions repo.RefreshStore
	Issuer   *tokens.Issuer
	Events   Events
}

type RegisterInput struct {
	Name     string
	Surname  string
	Email    string
	Password string
}

type LoginResult struct {
	User    *models.User
	Access  tokens.Token
	Refresh tokens.Token
}

// RefreshOutcome is what a refresh exchange did with the presented token.
type RefreshOutcome int

const (
	// RefreshMalformed: the token failed verification. Nothing was changed.
	RefreshMalformed RefreshOutcome = iota
	// RefreshRotated: the token was consumed and replaced by RefreshResult.Refresh.
	RefreshRotated
	// RefreshReused: the token was validly signed but no longer current.
	// Every session of its user has been revoked.
	RefreshReused
)

func (o RefreshOutcome) String() string {
	switch o {
	case RefreshRotated:
		return "rotated"
	case RefreshReused:
		return "reused"
	default:
		return "malformed"
	}
}

// Err is nil for a rotation and the matching sentinel otherwise.
func (o RefreshOutcome) Err() error {
	switch o {
	case RefreshRotated:
		return nil
	case RefreshReused:
		return errs.ErrRefreshReuse
	default:
		return errs.ErrRefreshInvalid
	}
}

type RefreshResult struct {
	Outcome RefreshOutcome
	UserID  uint
	Access  tokens.Token
	Refresh tokens.Token
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Errorw("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Email:        NormalizeEmail(in.Email),
		PasswordHash: pwHash,
		Role:         models.RoleGuest,
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			l.Warnw("register_error", "status", 409, "reason", "email already taken")
			return nil, err
		}
		l.Errorw("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	s.Events.emit(ctx, Event{Type: EventUserRegistered, UserID: user.ID, Email: user.Email, Role: user.Role})
	return user, nil
}

// Login checks the credentials and opens a new session. Unknown email and
// wrong password both fail with errs.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			l.Warnw("login_failed", "status", 400, "reason", "unknown email")
			return nil, errs.ErrInvalidCredentials
		}
		l.Errorw("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warnw("login_failed", "status", 400, "reason", "wrong password")
		return nil, errs.ErrInvalidCredentials
	}

	pair, err := s.Issuer.IssuePair(user.ID, user.Role)
	if err != nil {
		l.Errorw("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if _, err := s.Sessions.Save(ctx, user.ID, pair.Refresh.Value, pair.Refresh.ExpiresAt); err != nil {
		l.Errorw("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	s.Events.emit(ctx, Event{Type: EventUserLoggedIn, UserID: user.ID, Email: user.Email, Role: user.Role})
	return &LoginResult{User: user, Access: pair.Access, Refresh: pair.Refresh}, nil
}

// Refresh exchanges a refresh token for a new pair. Each presented token is
// consumed at most once: it is either rotated in place, or, when it is no
// longer current, taken as evidence of theft and every session of its user
// is revoked. The error return is reserved for storage failures.
func (s *AuthService) Refresh(ctx context.Context, rt string) (RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if rt == "" {
		return RefreshResult{Outcome: RefreshMalformed}, nil
	}
	claims, err := s.Issuer.VerifyRefresh(rt)
	if err != nil {
		l.Warnw("refresh_rejected", "reason", "verify", "error", err)
		return RefreshResult{Outcome: RefreshMalformed}, nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return RefreshResult{Outcome: RefreshMalformed}, nil
	}
	l = l.With("user_id", userID)

	rec, err := s.Sessions.FindByToken(ctx, rt)
	if err != nil {
		l.Errorw("refresh_failed", "reason", "lookup", "error", err)
		return RefreshResult{}, fmt.Errorf("find refresh token: %w", err)
	}
	if rec == nil || rec.UserID != userID {
		return s.reuseDetected(ctx, userID)
	}

	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			if err := s.Sessions.RevokeOne(ctx, rec.ID); err != nil && !errors.Is(err, errs.ErrNotFound) {
				l.Warnw("revoke_orphan_session_failed", "session_id", rec.ID, "error", err)
			}
			return RefreshResult{Outcome: RefreshMalformed}, nil
		}
		return RefreshResult{}, fmt.Errorf("load user: %w", err)
	}

	pair, err := s.Issuer.IssuePair(user.ID, user.Role)
	if err != nil {
		return RefreshResult{}, err
	}
	if err := s.Sessions.Rotate(ctx, rec.ID, rt, pair.Refresh.Value, pair.Refresh.ExpiresAt); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// lost the race against another exchange of the same token
			return s.reuseDetected(ctx, userID)
		}
		l.Errorw("refresh_failed", "reason", "rotate", "error", err)
		return RefreshResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	l.Infow("refresh_rotated", "session_id", rec.ID)
	return RefreshResult{Outcome: RefreshRotated, UserID: user.ID, Access: pair.Access, Refresh: pair.Refresh}, nil
}

func (s *AuthService) reuseDetected(ctx context.Context, userID uint) (RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh", "user_id", userID)

	n, err := s.Sessions.RevokeAll(ctx, userID)
	if err != nil {
		l.Errorw("refresh_failed", "reason", "revoke all", "error", err)
		return RefreshResult{}, fmt.Errorf("revoke sessions: %w", err)
	}
	l.Warnw("refresh_reuse_detected", "revoked", n)
	s.Events.emit(ctx, Event{Type: EventRefreshReuseDetected, UserID: userID, Revoked: n})
	return RefreshResult{Outcome: RefreshReused, UserID: userID}, nil
}

// Logout ends the session holding rt. A missing or unknown token still logs out.
func (s *AuthService) Logout(ctx context.Context, userID uint, rt string) error {
	if rt != "" {
		if err := s.Sessions.RevokeByToken(ctx, userID, rt); err != nil {
			logging.FromContext(ctx).Errorw("logout_failed", "user_id", userID, "error", err)
			return err
		}
	}
	s.Events.emit(ctx, Event{Type: EventUserLoggedOut, UserID: userID})
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.Users.GetUserByID(ctx, userID)
}

// RevokeSessions ends every session of the user.
func (s *AuthService) RevokeSessions(ctx context.Context, userID uint) (int64, error) {
	return s.Sessions.RevokeAll(ctx, userID)
}

// RunPurge deletes expired sessions every interval until ctx is done.
func (s *AuthService) RunPurge(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	l := logging.FromContext(ctx).With("svc", "auth.purge")
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.Sessions.PurgeExpired(ctx, now)
			if err != nil {
				l.Errorw("purge_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Infow("purged_expired_sessions", "count", n)
			}
		}
	}
}
