package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Both finders return (nil, nil) on a miss; the pricing layer owns the
// missing-item error taxonomy.
func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) FindActiveByName(ctx context.Context, db *gorm.DB, displayName string) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).
		Where("display_name = ? AND active = ?", displayName, true).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
