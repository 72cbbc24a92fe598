package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/reefward/diveops/internal/pricing/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EquipmentRental is a priced equipment line attached to one participant's
// booking. Unit cost and charge are frozen at creation; later rule changes
// never reprice an existing rental.
type EquipmentRental struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	BookingID     snowflake.ID    `gorm:"not null;uniqueIndex:ux_equipment_rentals_line,priority:1"`
	ParticipantID snowflake.ID    `gorm:"not null;uniqueIndex:ux_equipment_rentals_line,priority:2"`
	ItemID        snowflake.ID    `gorm:"not null;uniqueIndex:ux_equipment_rentals_line,priority:3"`
	ItemName      string          `gorm:"type:text;not null"`
	Quantity      int             `gorm:"not null"`
	UnitCost      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	UnitCharge    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency      string          `gorm:"type:text;not null"`
	PriceRuleID   snowflake.ID    `gorm:"not null;default:0"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (EquipmentRental) TableName() string { return "equipment_rentals" }

var (
	ErrParticipantMismatch = errors.New("participant_mismatch")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
)

type Service interface {
	// AddRental prices and persists one rental line. Repeating the same
	// (booking, participant, item) fails with ErrDuplicateRental from the
	// pricing taxonomy.
	AddRental(ctx context.Context, bookingID, participantID, itemID snowflake.ID, quantity int, actor pricingdomain.Actor) (*EquipmentRental, error)

	ListForBooking(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]EquipmentRental, error)
}
