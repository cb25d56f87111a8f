package es

import (
	"context"

	"github.com/Skotchmaster/museum/internal/models"
)

type textSearcher interface {
	SearchMuseums(ctx context.Context, q string, from, size int) (int64, []models.Museum, error)
	SearchCategories(ctx context.Context, museumID uint, q string, from, size int) (int64, []models.Category, error)
}

// Fallback answers searches from the database (LIKE on name) when no
// Elasticsearch cluster is configured. Index writes are dropped.
type Fallback struct {
	textSearcher
}

func NewFallback(db textSearcher) Fallback { return Fallback{textSearcher: db} }

func (Fallback) IndexMuseum(context.Context, *models.Museum) error     { return nil }
func (Fallback) DeleteMuseum(context.Context, uint) error              { return nil }
func (Fallback) IndexCategory(context.Context, *models.Category) error { return nil }
func (Fallback) DeleteCategory(context.Context, uint) error            { return nil }
