package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/contract/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Registry {
	return &repo{}
}

func (r *repo) FindEffective(ctx context.Context, db *gorm.DB, tag domain.Tag, kind domain.ScopeKind, ref snowflake.ID, asOf time.Time) (*domain.Contract, error) {
	var contract domain.Contract
	err := db.WithContext(ctx).
		Where("tag = ? AND scope_kind = ? AND scope_ref = ?", tag, kind, ref).
		Where("valid_from <= ?", asOf.UTC()).
		Where("valid_to IS NULL OR valid_to > ?", asOf.UTC()).
		Order("valid_from DESC").
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Contract, error) {
	var contract domain.Contract
	err := db.WithContext(ctx).First(&contract, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}
