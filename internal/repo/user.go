package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
)

// CreateUser inserts u unless the email is taken, in which case it returns errs.ErrConflict.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return errs.ErrConflict
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errs.ErrConflict
	}
	return nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListUsers pages through every user except the one with id exclude.
func (r *GormRepo) ListUsers(ctx context.Context, exclude uint, offset, limit int) (int64, []models.User, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{}).Where("id <> ?", exclude).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var users []models.User
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

func (r *GormRepo) SetUserRole(ctx context.Context, id uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrNotFound
	}
	return r.GetUserByID(ctx, id)
}

// UpsertAdmin creates an ADMIN account or promotes and re-keys an existing one.
func (r *GormRepo) UpsertAdmin(ctx context.Context, u *models.User) (created bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", u.Email).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			u.Role = models.RoleAdmin
			created = true
			return tx.Create(u).Error
		case err != nil:
			return err
		}
		if err := tx.Model(&existing).Updates(map[string]any{
			"role":          models.RoleAdmin,
			"password_hash": u.PasswordHash,
		}).Error; err != nil {
			return err
		}
		*u = existing
		u.Role = models.RoleAdmin
		return nil
	})
	return created, err
}
