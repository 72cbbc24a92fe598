package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	"github.com/reefward/diveops/pkg/money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AllocationMode says how a line's amounts apply across participants.
type AllocationMode string

const (
	// AllocationShared amounts are trip-wide and divided per head.
	AllocationShared AllocationMode = "shared"
	// AllocationPerParticipant amounts already apply to one participant.
	AllocationPerParticipant AllocationMode = "per_participant"
)

// Well-known line keys produced by the calculator pipeline.
const (
	LineKeyBoatShare    = "boat_share"
	LineKeyGasFill      = "gas_fill"
	LineKeyGuideFee     = "guide_fee"
	LineKeyParkBracelet = "park_bracelet"
)

// Line is one priced component. Immutable once produced.
type Line struct {
	Key        string
	Label      string
	Allocation AllocationMode
	Cost       money.Money
	Charge     money.Money

	// Provenance; zero IDs mean the reference does not apply.
	ContractID snowflake.ID
	RuleID     snowflake.ID
	ItemID     snowflake.ID

	// Meta carries extra reference values frozen into the snapshot,
	// such as gas fractions on a fill line.
	Meta map[string]string
}

// RentalLine is an equipment rental folded into pricing, with unit amounts
// frozen at rental time.
type RentalLine struct {
	RentalID      snowflake.ID
	ParticipantID snowflake.ID
	ItemID        snowflake.ID
	ItemName      string
	Quantity      int
	UnitCost      money.Money
	UnitCharge    money.Money
}

func (r RentalLine) TotalCost() (money.Money, error) {
	return r.UnitCost.MulInt(int64(r.Quantity)), nil
}

func (r RentalLine) TotalCharge() (money.Money, error) {
	return r.UnitCharge.MulInt(int64(r.Quantity)), nil
}

// Totals aggregates lines and rentals for one participant's view of a trip.
// Identity: TotalChargePerParticipant = SharedChargePerHead + PerParticipantCharge,
// and the same for cost.
type Totals struct {
	Currency string

	SharedCost          decimal.Decimal
	SharedCharge        decimal.Decimal
	SharedCostPerHead   decimal.Decimal
	SharedChargePerHead decimal.Decimal

	PerParticipantCost   decimal.Decimal
	PerParticipantCharge decimal.Decimal

	TotalCostPerParticipant   decimal.Decimal
	TotalChargePerParticipant decimal.Decimal

	Margin decimal.Decimal
}

// Computation is the raw outcome of the calculator pipeline, before
// snapshot assembly.
type Computation struct {
	Lines            []Line
	Rentals          []RentalLine
	Totals           Totals
	ParticipantCount int
	GasType          string
	Warnings         []string
}

// Options tune a quote or snapshot run.
type Options struct {
	GasType                  string
	ParticipantCountOverride int
	Force                    bool
	AllowIncomplete          bool
}

// Actor identifies who triggered an operation, for audit trails.
type Actor struct {
	ID   snowflake.ID
	Name string
}

// Service is the pricing orchestration surface. Quote never writes;
// SnapshotBookingPricing is the binding path.
type Service interface {
	Quote(ctx context.Context, tripID snowflake.ID, actor Actor, opts Options) (map[string]any, error)
	SnapshotBookingPricing(ctx context.Context, bookingID snowflake.ID, actor Actor, opts Options) (*bookingdomain.Booking, error)
	ValidateConfiguration(ctx context.Context, tripID snowflake.ID, at time.Time) ([]string, error)
}

// ComponentPricer resolves cost and charge for a single catalog item.
type ComponentPricer interface {
	ResolveComponent(ctx context.Context, db *gorm.DB, itemName string, hints ComponentHints, at time.Time) (*ComponentPrice, error)
	ResolveComponentByID(ctx context.Context, db *gorm.DB, itemID snowflake.ID, hints ComponentHints, at time.Time) (*ComponentPrice, error)
}

// ComponentHints narrows the rule hierarchy for a component lookup.
type ComponentHints struct {
	OrganizationID snowflake.ID
	PartyID        snowflake.ID
	AgreementID    snowflake.ID
}

// ComponentPrice is a resolved cost/charge pair with provenance.
type ComponentPrice struct {
	ItemID   snowflake.ID
	ItemName string
	RuleID   snowflake.ID
	Cost     money.Money
	Charge   money.Money
}
