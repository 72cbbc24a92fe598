package calc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/reefward/diveops/internal/catalog/domain"
	priceruledomain "github.com/reefward/diveops/internal/pricerule/domain"
	"github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/internal/scope"
	"github.com/reefward/diveops/pkg/money"
	"gorm.io/gorm"
)

type componentPricer struct {
	catalog  catalogdomain.Repository
	resolver priceruledomain.Resolver
}

func NewComponentPricer(catalog catalogdomain.Repository, resolver priceruledomain.Resolver) domain.ComponentPricer {
	return &componentPricer{catalog: catalog, resolver: resolver}
}

// ResolveComponent looks the item up by display name, resolves its charge
// through the rule hierarchy, and reads cost from the same rule. A rule
// with no cost field means cost equals charge; a missing item or rule is
// an error, never a silent zero.
func (p *componentPricer) ResolveComponent(ctx context.Context, db *gorm.DB, itemName string, hints domain.ComponentHints, at time.Time) (*domain.ComponentPrice, error) {
	item, err := p.catalog.FindActiveByName(ctx, db, itemName)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrMissingCatalogItem, itemName)
	}
	return p.priceItem(ctx, db, item, hints, at)
}

// ResolveComponentByID is the lookup used for equipment rentals, where
// the caller already holds an item reference.
func (p *componentPricer) ResolveComponentByID(ctx context.Context, db *gorm.DB, itemID snowflake.ID, hints domain.ComponentHints, at time.Time) (*domain.ComponentPrice, error) {
	item, err := p.catalog.FindByID(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Active {
		return nil, fmt.Errorf("%w: item %d", domain.ErrMissingCatalogItem, itemID)
	}
	return p.priceItem(ctx, db, item, hints, at)
}

func (p *componentPricer) priceItem(ctx context.Context, db *gorm.DB, item *catalogdomain.Item, hints domain.ComponentHints, at time.Time) (*domain.ComponentPrice, error) {
	res, err := p.resolver.Resolve(ctx, db, item.ID, scope.Hints{
		OrganizationID: hints.OrganizationID,
		PartyID:        hints.PartyID,
		AgreementID:    hints.AgreementID,
	}, at)
	if err != nil {
		if errors.Is(err, priceruledomain.ErrNoPriceFound) {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingPrice, item.DisplayName)
		}
		return nil, err
	}

	charge := money.New(res.Amount, res.Currency)
	cost := charge
	if res.CostAmount != nil {
		cost = money.New(*res.CostAmount, res.CostCurrency)
	}

	return &domain.ComponentPrice{
		ItemID:   item.ID,
		ItemName: item.DisplayName,
		RuleID:   res.RuleID,
		Cost:     cost,
		Charge:   charge,
	}, nil
}
