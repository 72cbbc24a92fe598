package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/reefward/diveops/internal/audit/domain"
	contractdomain "github.com/reefward/diveops/internal/contract/domain"
	priceruledomain "github.com/reefward/diveops/internal/pricerule/domain"
	"github.com/reefward/diveops/internal/pricing/domain"
)

// ValidateConfiguration dry-runs every lookup a snapshot would perform
// and reports what is broken, without pricing anything. Findings are
// prefixed MISSING: or INVALID: so operators can triage at a glance.
func (s *service) ValidateConfiguration(ctx context.Context, tripID snowflake.ID, at time.Time) ([]string, error) {
	trip, err := s.bookings.FindTrip(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}
	cfg := s.pricingCfg.Get()

	var problems []string

	if _, err := s.tiers.BoatCost(ctx, s.db, trip.SiteID, 1, at); err != nil {
		problems = append(problems, classify("boat charter", err))
	}

	boatContract, err := s.contracts.FindEffective(ctx, s.db, contractdomain.TagVendorPricing, contractdomain.ScopeKindSite, trip.SiteID, at)
	if err != nil {
		return nil, err
	}
	if boatContract != nil && boatContract.CounterpartyID == 0 {
		problems = append(problems, fmt.Sprintf("INVALID: boat charter contract %d has no counterparty", boatContract.ID))
	}

	for gasType := range cfg.GasTypes {
		if _, err := s.tiers.GasFillCost(ctx, s.db, trip.ShopID, gasType, 1, nil, at); err != nil {
			problems = append(problems, classify(fmt.Sprintf("gas fills (%s)", gasType), err))
		}
	}

	hints := domain.ComponentHints{OrganizationID: trip.ShopID}
	for _, itemName := range []string{cfg.GuideFeeItemName, cfg.ParkFeeItemName} {
		if _, err := s.pricer.ResolveComponent(ctx, s.db, itemName, hints, at); err != nil {
			problems = append(problems, classify(itemName, err))
		}
	}

	if len(problems) > 0 {
		s.audit.Record(ctx, s.db, auditdomain.Event{
			Action:     auditdomain.ActionValidationFailed,
			TargetType: "trip",
			TargetID:   tripID,
			Data: map[string]any{
				"problems": problems,
			},
		})
	}
	return problems, nil
}

func classify(subject string, err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingVendorAgreement),
		errors.Is(err, domain.ErrMissingCatalogItem),
		errors.Is(err, domain.ErrMissingPrice),
		errors.Is(err, priceruledomain.ErrNoPriceFound):
		return fmt.Sprintf("MISSING: %s: %v", subject, err)
	default:
		return fmt.Sprintf("INVALID: %s: %v", subject, err)
	}
}
