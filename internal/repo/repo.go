package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRefreshToken covers not-found, revoked and expired alike so
	// callers cannot tell the cases apart.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
