package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/party/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindOrganization(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repo) FindPerson(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Person, error) {
	var person domain.Person
	err := db.WithContext(ctx).First(&person, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPersonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &person, nil
}
