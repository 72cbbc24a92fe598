package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/booking/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) FindTrip(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Trip, error) {
	var trip domain.Trip
	if err := db.WithContext(ctx).Where("id = ?", id).First(&trip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrTripNotFound, id)
		}
		return nil, err
	}
	return &trip, nil
}

func (r *repository) FindSite(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Site, error) {
	var site domain.Site
	if err := db.WithContext(ctx).Where("id = ?", id).First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrSiteNotFound, id)
		}
		return nil, err
	}
	return &site, nil
}

func (r *repository) FindBooking(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	return r.findBooking(ctx, db, id)
}

func (r *repository) FindBookingForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	// sqlite has no row locks; its single writer serializes the
	// transaction anyway.
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findBooking(ctx, tx, id)
}

func (r *repository) findBooking(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var booking domain.Booking
	if err := db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrBookingNotFound, id)
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) CountActiveParticipants(ctx context.Context, db *gorm.DB, tripID snowflake.ID) (int, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Booking{}).
		Where("trip_id = ? AND status IN ?", tripID, []domain.Status{domain.StatusConfirmed, domain.StatusCheckedIn}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repository) SaveSnapshot(ctx context.Context, tx *gorm.DB, booking *domain.Booking) error {
	return tx.WithContext(ctx).Model(booking).
		Select("price_snapshot", "price_amount", "price_currency", "updated_at").
		Updates(map[string]any{
			"price_snapshot": booking.PriceSnapshot,
			"price_amount":   booking.PriceAmount,
			"price_currency": booking.PriceCurrency,
		}).Error
}
