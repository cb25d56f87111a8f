// Package repo is the gorm-backed persistence layer: users, refresh sessions
// and the museum catalog.
package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/museum/internal/errs"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// notFound maps gorm's missing-record error onto errs.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}
