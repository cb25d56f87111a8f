package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/pkg/tokens"
)

// RefreshStore keeps the refresh tokens currently honoured for each user.
// Tokens are stored as their sha256 digest; a user may hold several sessions.
type RefreshStore interface {
	Save(ctx context.Context, userID uint, token string, expiresAt time.Time) (*models.RefreshToken, error)
	// FindByToken returns nil, nil when no record holds token.
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// Rotate replaces oldToken by newToken on record id in one conditional
	// write. It fails with errs.ErrNotFound when the record no longer holds
	// oldToken, so of two concurrent rotations only one succeeds.
	Rotate(ctx context.Context, id uint, oldToken, newToken string, newExpiry time.Time) error
	RevokeAll(ctx context.Context, userID uint) (int64, error)
	RevokeOne(ctx context.Context, id uint) error
	RevokeByToken(ctx context.Context, userID uint, token string) error
	CountActive(ctx context.Context, userID uint) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormRefreshStore struct {
	DB *gorm.DB
}

func NewRefreshStore(db *gorm.DB) *GormRefreshStore {
	return &GormRefreshStore{DB: db}
}

var _ RefreshStore = (*GormRefreshStore)(nil)

func (s *GormRefreshStore) Save(ctx context.Context, userID uint, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	rt := models.RefreshToken{
		TokenHash: tokens.Sha256Hex(token),
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrConflict
		}
		return nil, err
	}
	return &rt, nil
}

func (s *GormRefreshStore) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := s.DB.WithContext(ctx).Where("token_hash = ?", tokens.Sha256Hex(token)).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (s *GormRefreshStore) Rotate(ctx context.Context, id uint, oldToken, newToken string, newExpiry time.Time) error {
	res := s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND token_hash = ?", id, tokens.Sha256Hex(oldToken)).
		Updates(map[string]any{
			"token_hash": tokens.Sha256Hex(newToken),
			"expires_at": newExpiry.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *GormRefreshStore) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	res := s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (s *GormRefreshStore) RevokeOne(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.RefreshToken{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// RevokeByToken deletes the user's session holding token. A token that is
// already gone is not an error.
func (s *GormRefreshStore) RevokeByToken(ctx context.Context, userID uint, token string) error {
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND token_hash = ?", userID, tokens.Sha256Hex(token)).
		Delete(&models.RefreshToken{}).Error
}

func (s *GormRefreshStore) CountActive(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND expires_at > ?", userID, time.Now().UTC()).
		Count(&n).Error
	return n, err
}

func (s *GormRefreshStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
