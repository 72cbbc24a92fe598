package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/pricerule/domain"
	"github.com/reefward/diveops/internal/scope"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) FindCandidates(ctx context.Context, db *gorm.DB, itemID snowflake.ID, s scope.Scope, at time.Time) ([]domain.PriceRule, error) {
	var rules []domain.PriceRule
	q := db.WithContext(ctx).
		Where("item_id = ? AND scope_type = ?", itemID, s.Type).
		Where("valid_from <= ? AND (valid_to IS NULL OR valid_to > ?)", at, at)
	if s.Type != scope.TypeGlobal {
		q = q.Where("scope_ref = ?", s.Ref)
	}
	if err := q.Order("priority DESC, valid_from DESC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PriceRule, error) {
	var rule domain.PriceRule
	if err := db.WithContext(ctx).Where("id = ?", id).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}
