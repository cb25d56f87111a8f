package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
)

// MuseumPatch and CategoryPatch carry optional field updates; nil fields are kept.
type MuseumPatch struct {
	Name        *string
	Description *string
}

type CategoryPatch struct {
	Name        *string
	Description *string
}

type ItemPatch struct {
	Title       *string
	Description *string
	CategoryID  *uint
}

func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(q)
	return "%" + q + "%"
}

func (r *GormRepo) ListMuseums(ctx context.Context, offset, limit int) (int64, []models.Museum, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Museum{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Museum
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) SearchMuseums(ctx context.Context, q string, offset, limit int) (int64, []models.Museum, error) {
	where := r.DB.WithContext(ctx).Model(&models.Museum{}).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(q)).
		Session(&gorm.Session{})

	var total int64
	if err := where.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Museum
	if err := where.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetMuseum(ctx context.Context, id uint) (*models.Museum, error) {
	var m models.Museum
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *GormRepo) CreateMuseum(ctx context.Context, m *models.Museum) (*models.Museum, error) {
	if err := r.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *GormRepo) PatchMuseum(ctx context.Context, id uint, p MuseumPatch) (*models.Museum, error) {
	m, err := r.GetMuseum(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if err := r.DB.WithContext(ctx).Save(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMuseum removes the museum with its categories, their items and curator grants.
func (r *GormRepo) DeleteMuseum(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := tx.Model(&models.Category{}).Select("id").Where("museum_id = ?", id)
		if err := tx.Where("category_id IN (?)", categories).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id IN (?)", categories).Delete(&models.UserCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("museum_id = ?", id).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Museum{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

func (r *GormRepo) ListCategories(ctx context.Context, museumID uint, offset, limit int) (int64, []models.Category, error) {
	where := r.DB.WithContext(ctx).Model(&models.Category{}).Where("museum_id = ?", museumID).Session(&gorm.Session{})

	var total int64
	if err := where.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Category
	if err := where.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) SearchCategories(ctx context.Context, museumID uint, q string, offset, limit int) (int64, []models.Category, error) {
	where := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("museum_id = ?", museumID).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(q)).
		Session(&gorm.Session{})

	var total int64
	if err := where.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Category
	if err := where.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// GetCategory looks the category up inside museumID; a category of another museum is not found.
func (r *GormRepo) GetCategory(ctx context.Context, museumID, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("museum_id = ?", museumID).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormRepo) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if _, err := r.GetMuseum(ctx, c.MuseumID); err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *GormRepo) PatchCategory(ctx context.Context, museumID, id uint, p CategoryPatch) (*models.Category, error) {
	c, err := r.GetCategory(ctx, museumID, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if err := r.DB.WithContext(ctx).Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, museumID, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("museum_id = ?", museumID).Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		return tx.Where("category_id = ?", id).Delete(&models.UserCategory{}).Error
	})
}

func (r *GormRepo) ListItems(ctx context.Context, categoryID uint, offset, limit int) (int64, []models.Item, error) {
	where := r.DB.WithContext(ctx).Model(&models.Item{}).Where("category_id = ?", categoryID).Session(&gorm.Session{})

	var total int64
	if err := where.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Item
	if err := where.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetItem(ctx context.Context, categoryID, id uint) (*models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).Where("category_id = ?", categoryID).First(&it, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

func (r *GormRepo) CreateItem(ctx context.Context, it *models.Item) (*models.Item, error) {
	if err := r.DB.WithContext(ctx).Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

func (r *GormRepo) PatchItem(ctx context.Context, categoryID, id uint, p ItemPatch) (*models.Item, error) {
	it, err := r.GetItem(ctx, categoryID, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.CategoryID != nil {
		it.CategoryID = *p.CategoryID
	}
	if err := r.DB.WithContext(ctx).Save(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

func (r *GormRepo) DeleteItem(ctx context.Context, categoryID, id uint) error {
	res := r.DB.WithContext(ctx).Where("category_id = ?", categoryID).Delete(&models.Item{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
