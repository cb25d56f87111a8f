package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/es"
	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/internal/repo"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Search es.Searcher
	Events Events
}

func (s *CatalogService) ListMuseums(ctx context.Context, offset, limit int) (int64, []models.Museum, error) {
	return s.Repo.ListMuseums(ctx, offset, limit)
}

func (s *CatalogService) SearchMuseums(ctx context.Context, q string, offset, limit int) (int64, []models.Museum, error) {
	return s.Search.SearchMuseums(ctx, q, offset, limit)
}

func (s *CatalogService) GetMuseum(ctx context.Context, id uint) (*models.Museum, error) {
	return s.Repo.GetMuseum(ctx, id)
}

func (s *CatalogService) CreateMuseum(ctx context.Context, name, description string) (*models.Museum, error) {
	m, err := s.Repo.CreateMuseum(ctx, &models.Museum{Name: name, Description: description})
	if err != nil {
		return nil, err
	}
	s.index(ctx, "museum", m.ID, func() error { return s.Search.IndexMuseum(ctx, m) })
	s.Events.emit(ctx, Event{Type: EventMuseumCreated, MuseumID: m.ID})
	return m, nil
}

func (s *CatalogService) UpdateMuseum(ctx context.Context, id uint, p repo.MuseumPatch) (*models.Museum, error) {
	m, err := s.Repo.PatchMuseum(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.index(ctx, "museum", m.ID, func() error { return s.Search.IndexMuseum(ctx, m) })
	s.Events.emit(ctx, Event{Type: EventMuseumUpdated, MuseumID: m.ID})
	return m, nil
}

func (s *CatalogService) DeleteMuseum(ctx context.Context, id uint) error {
	_, cats, err := s.Repo.ListCategories(ctx, id, 0, -1)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteMuseum(ctx, id); err != nil {
		return err
	}
	s.index(ctx, "museum", id, func() error { return s.Search.DeleteMuseum(ctx, id) })
	for _, c := range cats {
		s.index(ctx, "category", c.ID, func() error { return s.Search.DeleteCategory(ctx, c.ID) })
	}
	s.Events.emit(ctx, Event{Type: EventMuseumDeleted, MuseumID: id})
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context, museumID uint, offset, limit int) (int64, []models.Category, error) {
	return s.Repo.ListCategories(ctx, museumID, offset, limit)
}

func (s *CatalogService) SearchCategories(ctx context.Context, museumID uint, q string, offset, limit int) (int64, []models.Category, error) {
	return s.Search.SearchCategories(ctx, museumID, q, offset, limit)
}

func (s *CatalogService) GetCategory(ctx context.Context, museumID, id uint) (*models.Category, error) {
	return s.Repo.GetCategory(ctx, museumID, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, museumID uint, name, description string) (*models.Category, error) {
	c, err := s.Repo.CreateCategory(ctx, &models.Category{MuseumID: museumID, Name: name, Description: description})
	if err != nil {
		return nil, err
	}
	s.index(ctx, "category", c.ID, func() error { return s.Search.IndexCategory(ctx, c) })
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, museumID, id uint, p repo.CategoryPatch) (*models.Category, error) {
	c, err := s.Repo.PatchCategory(ctx, museumID, id, p)
	if err != nil {
		return nil, err
	}
	s.index(ctx, "category", c.ID, func() error { return s.Search.IndexCategory(ctx, c) })
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, museumID, id uint) error {
	if err := s.Repo.DeleteCategory(ctx, museumID, id); err != nil {
		return err
	}
	s.index(ctx, "category", id, func() error { return s.Search.DeleteCategory(ctx, id) })
	return nil
}

func (s *CatalogService) CategoryUsers(ctx context.Context, museumID, categoryID uint) ([]models.User, error) {
	if _, err := s.Repo.GetCategory(ctx, museumID, categoryID); err != nil {
		return nil, err
	}
	return s.Repo.ListCategoryUsers(ctx, categoryID)
}

// AddCurator grants a CURATOR account edit access to the category.
func (s *CatalogService) AddCurator(ctx context.Context, museumID, categoryID, userID uint) error {
	if _, err := s.Repo.GetCategory(ctx, museumID, categoryID); err != nil {
		return err
	}
	u, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role != models.RoleCurator {
		return fmt.Errorf("%w: user %d is not a curator", errs.ErrValidation, userID)
	}
	return s.Repo.AssignCurator(ctx, categoryID, userID)
}

func (s *CatalogService) RemoveCurator(ctx context.Context, museumID, categoryID, userID uint) error {
	if _, err := s.Repo.GetCategory(ctx, museumID, categoryID); err != nil {
		return err
	}
	return s.Repo.RemoveCurator(ctx, categoryID, userID)
}

// CanEdit reports whether a user with role may change items of categoryID:
// admins always can, curators only in categories they were assigned to.
func (s *CatalogService) CanEdit(ctx context.Context, userID uint, role models.Role, categoryID uint) (bool, error) {
	switch role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleCurator:
		return s.Repo.IsCurator(ctx, userID, categoryID)
	default:
		return false, nil
	}
}

func (s *CatalogService) ListItems(ctx context.Context, museumID, categoryID uint, offset, limit int) (int64, []models.Item, error) {
	if _, err := s.Repo.GetCategory(ctx, museumID, categoryID); err != nil {
		return 0, nil, err
	}
	return s.Repo.ListItems(ctx, categoryID, offset, limit)
}

func (s *CatalogService) GetItem(ctx context.Context, museumID, categoryID, id uint) (*models.Item, error) {
	if _, err := s.Repo.GetCategory(ctx, museumID, categoryID); err != nil {
		return nil, err
	}
	return s.Repo.GetItem(ctx, categoryID, id)
}

func (s *CatalogService) CreateItem(ctx context.Context, museumID, categoryID uint, title, description string) (*models.Item, error) {
	if _, err := s.Repo.GetCategory(ctx, museumID, categoryID); err != nil {
		return nil, err
	}
	return s.Repo.CreateItem(ctx, &models.Item{CategoryID: categoryID, Title: title, Description: description})
}

// UpdateItem edits an item and optionally moves it to another category of the
// same museum. Moving requires edit rights on the target category too.
func (s *CatalogService) UpdateItem(ctx context.Context, userID uint, role models.Role, museumID, categoryID, id uint, p repo.ItemPatch) (*models.Item, error) {
	if _, err := s.Repo.GetCategory(ctx, museumID, categoryID); err != nil {
		return nil, err
	}
	if p.CategoryID != nil && *p.CategoryID != categoryID {
		if _, err := s.Repo.GetCategory(ctx, museumID, *p.CategoryID); err != nil {
			return nil, err
		}
		ok, err := s.CanEdit(ctx, userID, role, *p.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: no access to category %d", errs.ErrForbidden, *p.CategoryID)
		}
	}
	return s.Repo.PatchItem(ctx, categoryID, id, p)
}

func (s *CatalogService) DeleteItem(ctx context.Context, museumID, categoryID, id uint) error {
	if _, err := s.Repo.GetCategory(ctx, museumID, categoryID); err != nil {
		return err
	}
	return s.Repo.DeleteItem(ctx, categoryID, id)
}

// index runs a search index write; failures are logged, the database stays the source of truth.
func (s *CatalogService) index(ctx context.Context, kind string, id uint, write func() error) {
	if err := write(); err != nil {
		logging.FromContext(ctx).Warnw("search_index_failed", "kind", kind, "id", id, "error", err)
	}
}
