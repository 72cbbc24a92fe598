// Package snapshot assembles priced lines, rentals, and totals into the
// versioned, hashed value persisted on a booking. Build is pure apart
// from the clock; identical inputs always hash identically.
package snapshot

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/clock"
	"github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/pkg/money"
)

const (
	// SchemaVersion bumps only on breaking layout changes.
	SchemaVersion = "1.0.0"

	toolID = "diveops-pricing"
)

// MoneyValue serializes an amount as a string so the hash never depends
// on float formatting.
type MoneyValue struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func moneyValue(m money.Money) MoneyValue {
	return MoneyValue{Amount: m.Quantized().Amount.StringFixed(2), Currency: m.Currency}
}

type LineSnapshot struct {
	Key        string            `json:"key"`
	Label      string            `json:"label"`
	Allocation string            `json:"allocation"`
	Cost       MoneyValue        `json:"cost"`
	Charge     MoneyValue        `json:"charge"`
	Refs       map[string]string `json:"refs"`
}

type RentalSnapshot struct {
	RentalID      string     `json:"rental_id"`
	ParticipantID string     `json:"participant_id"`
	ItemID        string     `json:"item_id"`
	ItemName      string     `json:"item_name"`
	Quantity      int        `json:"quantity"`
	UnitCost      MoneyValue `json:"unit_cost"`
	UnitCharge    MoneyValue `json:"unit_charge"`
}

type TotalsSnapshot struct {
	Currency string `json:"currency"`

	SharedCost          string `json:"shared_cost"`
	SharedCharge        string `json:"shared_charge"`
	SharedCostPerHead   string `json:"shared_cost_per_head"`
	SharedChargePerHead string `json:"shared_charge_per_head"`

	PerParticipantCost   string `json:"per_participant_cost"`
	PerParticipantCharge string `json:"per_participant_charge"`

	TotalCostPerParticipant   string `json:"total_cost_per_participant"`
	TotalChargePerParticipant string `json:"total_charge_per_participant"`

	Margin string `json:"margin"`
}

type InputsSnapshot struct {
	BookingID        string `json:"booking_id,omitempty"`
	TripID           string `json:"trip_id"`
	SiteID           string `json:"site_id"`
	ShopID           string `json:"shop_id"`
	ParticipantCount int    `json:"participant_count"`
	GasType          string `json:"gas_type"`
	DivesPerTrip     int    `json:"dives_per_trip"`
	AsOf             string `json:"as_of"`
}

type MetadataSnapshot struct {
	SchemaVersion string `json:"schema_version"`
	Tool          string `json:"tool"`
	GeneratedAt   string `json:"generated_at"`
	InputHash     string `json:"input_hash"`
	OutputHash    string `json:"output_hash"`
}

// Snapshot is the full frozen pricing record.
type Snapshot struct {
	Inputs   InputsSnapshot   `json:"inputs"`
	Lines    []LineSnapshot   `json:"lines"`
	Rentals  []RentalSnapshot `json:"rentals"`
	Totals   TotalsSnapshot   `json:"totals"`
	Warnings []string         `json:"warnings,omitempty"`
	IsQuote  bool             `json:"is_quote,omitempty"`
	Metadata MetadataSnapshot `json:"metadata"`
}

type Builder struct {
	clock clock.Clock
}

func NewBuilder(c clock.Clock) *Builder {
	return &Builder{clock: c}
}

// Build freezes a computation. The input hash covers only the inputs,
// the output hash covers lines, rentals, and totals, so the two detect
// different kinds of drift.
func (b *Builder) Build(inputs InputsSnapshot, comp domain.Computation) (*Snapshot, error) {
	lines := make([]LineSnapshot, 0, len(comp.Lines))
	for _, l := range comp.Lines {
		lines = append(lines, lineSnapshot(l))
	}
	rentals := make([]RentalSnapshot, 0, len(comp.Rentals))
	for _, r := range comp.Rentals {
		rentals = append(rentals, rentalSnapshot(r))
	}
	totals := totalsSnapshot(comp.Totals)

	inputHash, err := CanonicalHash(inputs)
	if err != nil {
		return nil, err
	}
	outputHash, err := CanonicalHash(map[string]any{
		"lines":   lines,
		"rentals": rentals,
		"totals":  totals,
	})
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Inputs:   inputs,
		Lines:    lines,
		Rentals:  rentals,
		Totals:   totals,
		Warnings: comp.Warnings,
		Metadata: MetadataSnapshot{
			SchemaVersion: SchemaVersion,
			Tool:          toolID,
			GeneratedAt:   b.clock.Now().Format(time.RFC3339),
			InputHash:     inputHash,
			OutputHash:    outputHash,
		},
	}, nil
}

func lineSnapshot(l domain.Line) LineSnapshot {
	refs := map[string]string{}
	if l.ContractID != 0 {
		refs["vendor_contract_id"] = l.ContractID.String()
	}
	if l.RuleID != 0 {
		refs["price_rule_id"] = l.RuleID.String()
	}
	if l.ItemID != 0 {
		refs["item_id"] = l.ItemID.String()
	}
	for k, v := range l.Meta {
		refs[k] = v
	}
	return LineSnapshot{
		Key:        l.Key,
		Label:      l.Label,
		Allocation: string(l.Allocation),
		Cost:       moneyValue(l.Cost),
		Charge:     moneyValue(l.Charge),
		Refs:       refs,
	}
}

func rentalSnapshot(r domain.RentalLine) RentalSnapshot {
	return RentalSnapshot{
		RentalID:      r.RentalID.String(),
		ParticipantID: r.ParticipantID.String(),
		ItemID:        r.ItemID.String(),
		ItemName:      r.ItemName,
		Quantity:      r.Quantity,
		UnitCost:      moneyValue(r.UnitCost),
		UnitCharge:    moneyValue(r.UnitCharge),
	}
}

func totalsSnapshot(t domain.Totals) TotalsSnapshot {
	return TotalsSnapshot{
		Currency:                  t.Currency,
		SharedCost:                t.SharedCost.StringFixed(2),
		SharedCharge:              t.SharedCharge.StringFixed(2),
		SharedCostPerHead:         t.SharedCostPerHead.StringFixed(2),
		SharedChargePerHead:       t.SharedChargePerHead.StringFixed(2),
		PerParticipantCost:        t.PerParticipantCost.StringFixed(2),
		PerParticipantCharge:      t.PerParticipantCharge.StringFixed(2),
		TotalCostPerParticipant:   t.TotalCostPerParticipant.StringFixed(2),
		TotalChargePerParticipant: t.TotalChargePerParticipant.StringFixed(2),
		Margin:                    t.Margin.StringFixed(2),
	}
}

// IDString formats a snowflake ID for snapshot inputs, mapping the zero
// ID to the empty string so optional references serialize consistently.
func IDString(id snowflake.ID) string {
	if id == 0 {
		return ""
	}
	return id.String()
}
