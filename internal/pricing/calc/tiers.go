package calc

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/reefward/diveops/internal/contract/domain"
	"github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/pkg/money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BoatCost is the tiered charter cost for one trip.
type BoatCost struct {
	Total          money.Money
	PerParticipant money.Money
	ContractID     snowflake.ID
}

// GasFillCost is the per-fill cost and charge for one gas type.
type GasFillCost struct {
	Cost       money.Money
	Charge     money.Money
	ContractID snowflake.ID
}

type TierCalculator struct {
	contracts contractdomain.Registry
}

func NewTierCalculator(contracts contractdomain.Registry) *TierCalculator {
	return &TierCalculator{contracts: contracts}
}

// BoatCost prices the charter for a site from the effective vendor_pricing
// contract: a base covering included_count heads plus a per-head overage.
func (c *TierCalculator) BoatCost(ctx context.Context, db *gorm.DB, siteID snowflake.ID, participantCount int, at time.Time) (*BoatCost, error) {
	if participantCount <= 0 {
		return nil, fmt.Errorf("%w: participant count must be positive, got %d", domain.ErrConfiguration, participantCount)
	}
	contract, err := c.contracts.FindEffective(ctx, db, contractdomain.TagVendorPricing, contractdomain.ScopeKindSite, siteID, at)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, fmt.Errorf("%w: no vendor_pricing contract for site %d", domain.ErrMissingVendorAgreement, siteID)
	}

	charter, err := termMap(contract.Terms, "boat_charter")
	if err != nil {
		return nil, err
	}
	baseCost, err := termDecimal(charter, "base_cost")
	if err != nil {
		return nil, err
	}
	includedCount, err := termInt(charter, "included_count")
	if err != nil {
		return nil, err
	}
	overagePerUnit, err := termDecimal(charter, "overage_per_unit")
	if err != nil {
		return nil, err
	}
	currency, err := termString(charter, "currency")
	if err != nil {
		return nil, err
	}

	overageCount := participantCount - includedCount
	if overageCount < 0 {
		overageCount = 0
	}
	total := baseCost.Add(overagePerUnit.Mul(decimal.NewFromInt(int64(overageCount))))
	perParticipant := money.RoundBank(total.Div(decimal.NewFromInt(int64(participantCount))), 2)

	return &BoatCost{
		Total:          money.New(total, currency),
		PerParticipant: money.New(perParticipant, currency),
		ContractID:     contract.ID,
	}, nil
}

// GasFillCost prices fills of one gas type from the shop's gas_vendor_pricing
// contract. chargeOverride replaces the contracted charge when gas is bundled
// into a package; cost is always the contracted cost.
func (c *TierCalculator) GasFillCost(ctx context.Context, db *gorm.DB, shopID snowflake.ID, gasType string, fills int, chargeOverride *decimal.Decimal, at time.Time) (*GasFillCost, error) {
	if fills < 0 {
		return nil, fmt.Errorf("%w: fills count must not be negative, got %d", domain.ErrConfiguration, fills)
	}
	contract, err := c.contracts.FindEffective(ctx, db, contractdomain.TagGasPricing, contractdomain.ScopeKindOrganization, shopID, at)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, fmt.Errorf("%w: no gas_vendor_pricing contract for shop %d", domain.ErrMissingVendorAgreement, shopID)
	}

	gasFills, err := termMap(contract.Terms, "gas_fills")
	if err != nil {
		return nil, err
	}
	spec, err := termMap(gasFills, gasType)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown gas type %q", domain.ErrConfiguration, gasType)
	}
	cost, err := termDecimal(spec, "cost")
	if err != nil {
		return nil, err
	}
	charge, err := termDecimal(spec, "charge")
	if err != nil {
		return nil, err
	}
	currency, err := termString(spec, "currency")
	if err != nil {
		return nil, err
	}
	if chargeOverride != nil {
		charge = *chargeOverride
	}

	n := decimal.NewFromInt(int64(fills))
	return &GasFillCost{
		Cost:       money.New(cost.Mul(n), currency),
		Charge:     money.New(charge.Mul(n), currency),
		ContractID: contract.ID,
	}, nil
}
