package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindTrip(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Trip, error)
	FindSite(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Site, error)
	FindBooking(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)

	// FindBookingForUpdate takes a row lock; call it inside a transaction.
	FindBookingForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Booking, error)

	// CountActiveParticipants counts confirmed and checked-in bookings on
	// a trip, ignoring soft-deleted rows.
	CountActiveParticipants(ctx context.Context, db *gorm.DB, tripID snowflake.ID) (int, error)

	// SaveSnapshot persists the frozen snapshot and denormalized price.
	SaveSnapshot(ctx context.Context, tx *gorm.DB, booking *Booking) error
}
