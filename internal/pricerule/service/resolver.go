package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/pricerule/domain"
	"github.com/reefward/diveops/internal/scope"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type resolver struct {
	repo domain.Repository
	log  *zap.Logger
}

func NewResolver(repo domain.Repository, log *zap.Logger) domain.Resolver {
	return &resolver{repo: repo, log: log}
}

// Resolve checks each scope level in specificity order and stops at the
// first level carrying an effective rule. Levels with no hint are skipped,
// so an agreement-scoped rule can never leak into a party-only lookup.
func (r *resolver) Resolve(ctx context.Context, db *gorm.DB, itemID snowflake.ID, hints scope.Hints, at time.Time) (*domain.Resolution, error) {
	for _, s := range candidateScopes(hints) {
		rules, err := r.repo.FindCandidates(ctx, db, itemID, s, at)
		if err != nil {
			return nil, err
		}
		if len(rules) == 0 {
			continue
		}
		rule := rules[0]
		r.log.Debug("price rule resolved",
			zap.Int64("item_id", int64(itemID)),
			zap.String("scope_type", string(rule.ScopeType)),
			zap.Int64("rule_id", int64(rule.ID)),
		)
		return resolutionFrom(rule), nil
	}
	return nil, fmt.Errorf("%w: item %d", domain.ErrNoPriceFound, itemID)
}

func candidateScopes(hints scope.Hints) []scope.Scope {
	scopes := make([]scope.Scope, 0, 4)
	if hints.AgreementID != 0 {
		scopes = append(scopes, scope.ForAgreement(hints.AgreementID))
	}
	if hints.PartyID != 0 {
		scopes = append(scopes, scope.ForParty(hints.PartyID))
	}
	if hints.OrganizationID != 0 {
		scopes = append(scopes, scope.ForOrganization(hints.OrganizationID))
	}
	return append(scopes, scope.Global())
}

func resolutionFrom(rule domain.PriceRule) *domain.Resolution {
	res := &domain.Resolution{
		RuleID:       rule.ID,
		ScopeType:    rule.ScopeType,
		Amount:       rule.Amount,
		Currency:     rule.Currency,
		CostAmount:   rule.CostAmount,
		CostCurrency: rule.Currency,
	}
	if rule.CostCurrency != nil {
		res.CostCurrency = *rule.CostCurrency
	}
	return res
}
