package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked_in"
	StatusCancelled Status = "cancelled"
)

// Active statuses count toward a trip's participant total.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// Site is a dive site serviced by a boat vendor.
type Site struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Site) TableName() string { return "sites" }

// Trip is one scheduled outing of a shop to a site.
type Trip struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	ShopID       snowflake.ID `gorm:"not null;index"`
	SiteID       snowflake.ID `gorm:"not null;index"`
	DepartsAt    time.Time    `gorm:"not null"`
	DivesPerTrip int          `gorm:"not null;default:2"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Trip) TableName() string { return "trips" }

// Booking ties one participant to a trip. PriceSnapshot and the
// denormalized amount/currency pair are written exactly once by the
// snapshot path; AgreementID, when set, unlocks agreement-scoped rules.
type Booking struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	TripID        snowflake.ID `gorm:"not null;index"`
	ParticipantID snowflake.ID `gorm:"not null;index"`
	AgreementID   snowflake.ID `gorm:"not null;default:0"`
	Status        Status       `gorm:"type:text;not null;default:'confirmed'"`
	GasType       string       `gorm:"type:text;not null;default:'air'"`

	PriceSnapshot datatypes.JSON   `gorm:"type:jsonb"`
	PriceAmount   *decimal.Decimal `gorm:"type:numeric(12,2)"`
	PriceCurrency string           `gorm:"type:text"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Booking) TableName() string { return "bookings" }

// HasSnapshot reports whether pricing has already been frozen.
func (b Booking) HasSnapshot() bool { return len(b.PriceSnapshot) > 0 }

var (
	ErrTripNotFound    = errors.New("trip_not_found")
	ErrSiteNotFound    = errors.New("site_not_found")
	ErrBookingNotFound = errors.New("booking_not_found")
)
