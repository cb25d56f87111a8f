package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
)

// IsCurator reports whether userID was granted edit access to categoryID.
func (r *GormRepo) IsCurator(ctx context.Context, userID, categoryID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.UserCategory{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AssignCurator grants userID access to categoryID. Granting twice is a no-op.
func (r *GormRepo) AssignCurator(ctx context.Context, categoryID, userID uint) error {
	if _, err := r.GetCategoryByID(ctx, categoryID); err != nil {
		return err
	}
	if _, err := r.GetUserByID(ctx, userID); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserCategory{UserID: userID, CategoryID: categoryID}).Error
}

func (r *GormRepo) RemoveCurator(ctx context.Context, categoryID, userID uint) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Delete(&models.UserCategory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *GormRepo) ListCategoryUsers(ctx context.Context, categoryID uint) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Joins("JOIN user_categories ON user_categories.user_id = users.id").
		Where("user_categories.category_id = ?", categoryID).
		Order("users.id ASC").
		Find(&users).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return users, err
}
