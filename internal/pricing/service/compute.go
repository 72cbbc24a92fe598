package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	bookingdomain "github.com/reefward/diveops/internal/booking/domain"
	"github.com/reefward/diveops/internal/pricing/calc"
	"github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/pkg/money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// lenientCaught are the failures a lenient run degrades to warnings.
// Plain configuration errors (malformed terms, bad counts) always abort.
func lenientCaught(err error) bool {
	return errors.Is(err, domain.ErrMissingVendorAgreement) ||
		errors.Is(err, domain.ErrMissingCatalogItem) ||
		errors.Is(err, domain.ErrMissingPrice)
}

// compute runs the full calculator pipeline for one trip and returns the
// priced lines plus totals. In lenient mode a missing vendor agreement,
// catalog item, or price rule drops its line and leaves a warning; in
// strict mode the first such failure aborts.
func (s *service) compute(ctx context.Context, tx *gorm.DB, trip *bookingdomain.Trip, hints domain.ComponentHints, participantCount int, gasType string, rentals []domain.RentalLine, lenient bool, at time.Time) (*domain.Computation, error) {
	if participantCount <= 0 {
		return nil, fmt.Errorf("%w: participant count must be positive, got %d", domain.ErrConfiguration, participantCount)
	}

	cfg := s.pricingCfg.Get()
	if _, ok := cfg.GasTypes[gasType]; !ok {
		return nil, fmt.Errorf("%w: unknown gas type %q", domain.ErrConfiguration, gasType)
	}

	comp := &domain.Computation{
		ParticipantCount: participantCount,
		GasType:          gasType,
	}

	addOrWarn := func(line *domain.Line, err error) error {
		if err != nil {
			if lenient && lenientCaught(err) {
				comp.Warnings = append(comp.Warnings, err.Error())
				return nil
			}
			return err
		}
		comp.Lines = append(comp.Lines, *line)
		return nil
	}

	if err := addOrWarn(s.boatLine(ctx, tx, trip, participantCount, at)); err != nil {
		return nil, err
	}
	if err := addOrWarn(s.gasLine(ctx, tx, trip, gasType, at)); err != nil {
		return nil, err
	}
	// One guide serves the whole trip; the park charges per head.
	if err := addOrWarn(s.componentLine(ctx, tx, domain.LineKeyGuideFee, cfg.GuideFeeItemName, domain.AllocationShared, hints, at)); err != nil {
		return nil, err
	}
	if err := addOrWarn(s.componentLine(ctx, tx, domain.LineKeyParkBracelet, cfg.ParkFeeItemName, domain.AllocationPerParticipant, hints, at)); err != nil {
		return nil, err
	}

	comp.Rentals = rentals

	totals, err := assembleTotals(comp.Lines, comp.Rentals, participantCount, cfg.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	comp.Totals = *totals
	return comp, nil
}

// boatLine is the shared charter line. The charter is a pass-through: the
// vendor cost is recovered from participants without markup.
func (s *service) boatLine(ctx context.Context, tx *gorm.DB, trip *bookingdomain.Trip, participantCount int, at time.Time) (*domain.Line, error) {
	boat, err := s.tiers.BoatCost(ctx, tx, trip.SiteID, participantCount, at)
	if err != nil {
		return nil, err
	}
	return &domain.Line{
		Key:        domain.LineKeyBoatShare,
		Label:      "Boat charter share",
		Allocation: domain.AllocationShared,
		Cost:       boat.Total,
		Charge:     boat.Total,
		ContractID: boat.ContractID,
	}, nil
}

// gasLine prices one participant's fills for the trip: one fill per dive.
// Fills are bundled into the trip price, so the customer charge is zeroed
// and only the vendor cost flows through.
func (s *service) gasLine(ctx context.Context, tx *gorm.DB, trip *bookingdomain.Trip, gasType string, at time.Time) (*domain.Line, error) {
	fills := trip.DivesPerTrip
	if fills <= 0 {
		fills = s.pricingCfg.Get().DefaultDivesPerTrip
	}
	bundled := decimal.Zero
	gas, err := s.tiers.GasFillCost(ctx, tx, trip.ShopID, gasType, fills, &bundled, at)
	if err != nil {
		return nil, err
	}
	line := &domain.Line{
		Key:        domain.LineKeyGasFill,
		Label:      fmt.Sprintf("Gas fills (%s)", gasType),
		Allocation: domain.AllocationPerParticipant,
		Cost:       gas.Cost,
		Charge:     gas.Charge,
		ContractID: gas.ContractID,
	}
	if spec, ok := s.pricingCfg.Get().GasTypes[gasType]; ok {
		line.Meta = map[string]string{
			"gas_type":    gasType,
			"o2_fraction": strconv.FormatFloat(spec.O2, 'f', 2, 64),
			"he_fraction": strconv.FormatFloat(spec.He, 'f', 2, 64),
		}
	}
	return line, nil
}

func (s *service) componentLine(ctx context.Context, tx *gorm.DB, key, itemName string, allocation domain.AllocationMode, hints domain.ComponentHints, at time.Time) (*domain.Line, error) {
	price, err := s.pricer.ResolveComponent(ctx, tx, itemName, hints, at)
	if err != nil {
		return nil, err
	}
	return &domain.Line{
		Key:        key,
		Label:      price.ItemName,
		Allocation: allocation,
		Cost:       price.Cost,
		Charge:     price.Charge,
		RuleID:     price.RuleID,
		ItemID:     price.ItemID,
	}, nil
}

// assembleTotals folds lines and rentals into one participant's totals.
// Shared amounts are divided per head with banker's rounding; the
// identity total = sharedPerHead + perParticipant holds for both cost
// and charge.
func assembleTotals(lines []domain.Line, rentals []domain.RentalLine, participantCount int, defaultCurrency string) (*domain.Totals, error) {
	currency := defaultCurrency
	for _, l := range lines {
		if l.Charge.Currency != "" {
			currency = l.Charge.Currency
			break
		}
	}

	sharedCost, sharedCharge := decimal.Zero, decimal.Zero
	perCost, perCharge := decimal.Zero, decimal.Zero

	for _, l := range lines {
		if l.Cost.Currency != currency || l.Charge.Currency != currency {
			return nil, fmt.Errorf("%w: line %q is in %s, computation is in %s",
				money.ErrCurrencyMismatch, l.Key, l.Charge.Currency, currency)
		}
		switch l.Allocation {
		case domain.AllocationShared:
			sharedCost = sharedCost.Add(l.Cost.Amount)
			sharedCharge = sharedCharge.Add(l.Charge.Amount)
		case domain.AllocationPerParticipant:
			perCost = perCost.Add(l.Cost.Amount)
			perCharge = perCharge.Add(l.Charge.Amount)
		}
	}

	for _, r := range rentals {
		if r.UnitCharge.Currency != currency {
			return nil, fmt.Errorf("%w: rental %q is in %s, computation is in %s",
				money.ErrCurrencyMismatch, r.ItemName, r.UnitCharge.Currency, currency)
		}
		qty := decimal.NewFromInt(int64(r.Quantity))
		perCost = perCost.Add(r.UnitCost.Amount.Mul(qty))
		perCharge = perCharge.Add(r.UnitCharge.Amount.Mul(qty))
	}

	sharedCostPerHead, _ := calc.Allocate(sharedCost, participantCount)
	sharedChargePerHead, _ := calc.Allocate(sharedCharge, participantCount)

	totalCost := sharedCostPerHead.Add(perCost)
	totalCharge := sharedChargePerHead.Add(perCharge)

	return &domain.Totals{
		Currency:                  currency,
		SharedCost:                sharedCost,
		SharedCharge:              sharedCharge,
		SharedCostPerHead:         sharedCostPerHead,
		SharedChargePerHead:       sharedChargePerHead,
		PerParticipantCost:        perCost,
		PerParticipantCharge:      perCharge,
		TotalCostPerParticipant:   totalCost,
		TotalChargePerParticipant: totalCharge,
		Margin:                    totalCharge.Sub(totalCost),
	}, nil
}
