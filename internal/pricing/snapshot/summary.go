package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Summary is the read-back view of a stored snapshot: the figures a
// caller needs without walking the full line detail.
type Summary struct {
	SchemaVersion             string          `json:"schema_version"`
	GeneratedAt               string          `json:"generated_at"`
	OutputHash                string          `json:"output_hash"`
	Currency                  string          `json:"currency"`
	TotalChargePerParticipant decimal.Decimal `json:"total_charge_per_participant"`
	TotalCostPerParticipant   decimal.Decimal `json:"total_cost_per_participant"`
	MarginPerParticipant      decimal.Decimal `json:"margin_per_participant"`
	ParticipantCount          int             `json:"participant_count"`
	LineCount                 int             `json:"line_count"`
	RentalCount               int             `json:"rental_count"`
	Warnings                  []string        `json:"warnings,omitempty"`
	IsQuote                   bool            `json:"is_quote,omitempty"`
}

// ExtractSummary decodes a stored snapshot document and pulls out its
// totals. It fails on documents that do not parse or whose totals are
// not valid decimals; it does not verify hashes.
func ExtractSummary(raw []byte) (*Summary, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty snapshot document")
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	charge, err := decimal.NewFromString(snap.Totals.TotalChargePerParticipant)
	if err != nil {
		return nil, fmt.Errorf("snapshot total charge: %w", err)
	}
	cost, err := decimal.NewFromString(snap.Totals.TotalCostPerParticipant)
	if err != nil {
		return nil, fmt.Errorf("snapshot total cost: %w", err)
	}
	margin, err := decimal.NewFromString(snap.Totals.Margin)
	if err != nil {
		return nil, fmt.Errorf("snapshot margin: %w", err)
	}
	return &Summary{
		SchemaVersion:             snap.Metadata.SchemaVersion,
		GeneratedAt:               snap.Metadata.GeneratedAt,
		OutputHash:                snap.Metadata.OutputHash,
		Currency:                  snap.Totals.Currency,
		TotalChargePerParticipant: charge,
		TotalCostPerParticipant:   cost,
		MarginPerParticipant:      margin,
		ParticipantCount:          snap.Inputs.ParticipantCount,
		LineCount:                 len(snap.Lines),
		RentalCount:               len(snap.Rentals),
		Warnings:                  snap.Warnings,
		IsQuote:                   snap.IsQuote,
	}, nil
}
