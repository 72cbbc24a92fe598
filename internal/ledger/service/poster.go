package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/clock"
	contractdomain "github.com/reefward/diveops/internal/contract/domain"
	"github.com/reefward/diveops/internal/ledger/domain"
	pricingdomain "github.com/reefward/diveops/internal/pricing/domain"
	"github.com/reefward/diveops/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Poster turns one booking's priced computation into a balanced
// double-entry transaction. Both sides are derived from the same line
// shares, so debits equal credits by construction.
type Poster struct {
	repo      domain.Repository
	contracts contractdomain.Registry
	clock     clock.Clock
	log       *zap.Logger
}

func NewPoster(repo domain.Repository, contracts contractdomain.Registry, c clock.Clock, log *zap.Logger) *Poster {
	return &Poster{repo: repo, contracts: contracts, clock: c, log: log}
}

// PostBookingPricing posts revenue and expense for one booking. Returns
// (nil, nil) when both charge and cost are zero: an explicit no-op.
func (p *Poster) PostBookingPricing(ctx context.Context, tx *gorm.DB, shopID, bookingID snowflake.ID, comp pricingdomain.Computation) (*domain.Transaction, error) {
	charge := comp.Totals.TotalChargePerParticipant
	currency := comp.Totals.Currency

	shares, err := p.vendorShares(ctx, tx, comp)
	if err != nil {
		return nil, err
	}
	cost := decimal.Zero
	for _, s := range shares {
		cost = cost.Add(s.amount)
	}
	if !cost.Equal(comp.Totals.TotalCostPerParticipant) {
		p.log.Warn("posted cost differs from computed totals",
			zap.Int64("booking_id", int64(bookingID)),
			zap.String("posted", cost.String()),
			zap.String("totals", comp.Totals.TotalCostPerParticipant.String()),
		)
	}

	if charge.IsZero() && cost.IsZero() {
		return nil, nil
	}

	txn := &domain.Transaction{
		BookingID: bookingID,
		Memo:      "booking pricing",
		PostedAt:  p.clock.Now(),
	}

	if charge.IsPositive() {
		receivable, err := p.repo.GetOrCreateAccount(ctx, tx, domain.OwnerTypeOrganization, shopID, domain.AccountReceivable, currency)
		if err != nil {
			return nil, err
		}
		revenue, err := p.repo.GetOrCreateAccount(ctx, tx, domain.OwnerTypeOrganization, shopID, domain.AccountRevenue, currency)
		if err != nil {
			return nil, err
		}
		txn.Entries = append(txn.Entries,
			domain.Entry{AccountID: receivable.ID, Direction: domain.DirectionDebit, Amount: charge, Currency: currency},
			domain.Entry{AccountID: revenue.ID, Direction: domain.DirectionCredit, Amount: charge, Currency: currency},
		)
	}

	if cost.IsPositive() {
		expense, err := p.repo.GetOrCreateAccount(ctx, tx, domain.OwnerTypeOrganization, shopID, domain.AccountExpense, currency)
		if err != nil {
			return nil, err
		}
		txn.Entries = append(txn.Entries,
			domain.Entry{AccountID: expense.ID, Direction: domain.DirectionDebit, Amount: cost, Currency: currency},
		)
		for _, share := range shares {
			if !share.amount.IsPositive() {
				continue
			}
			ownerID := share.vendorID
			if ownerID == 0 {
				ownerID = shopID
			}
			payable, err := p.repo.GetOrCreateAccount(ctx, tx, domain.OwnerTypeOrganization, ownerID, domain.AccountPayable, currency)
			if err != nil {
				return nil, err
			}
			txn.Entries = append(txn.Entries,
				domain.Entry{AccountID: payable.ID, Direction: domain.DirectionCredit, Amount: share.amount, Currency: currency},
			)
		}
	}

	if err := p.repo.CreateTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

type share struct {
	vendorID snowflake.ID // zero means the fallback payables account
	amount   decimal.Decimal
}

// vendorShares computes this booking's slice of each line's cost and
// groups the slices by vendor. The vendor is re-resolved from the line's
// originating contract at posting time; when that fails, the slice
// accrues to the fallback account and a warning is logged so the gap is
// visible instead of silent. Rental costs are always unattributed.
func (p *Poster) vendorShares(ctx context.Context, tx *gorm.DB, comp pricingdomain.Computation) ([]share, error) {
	byVendor := map[snowflake.ID]decimal.Decimal{}
	order := []snowflake.ID{}
	add := func(vendorID snowflake.ID, amount decimal.Decimal) {
		if _, seen := byVendor[vendorID]; !seen {
			order = append(order, vendorID)
		}
		byVendor[vendorID] = byVendor[vendorID].Add(amount)
	}

	for _, line := range comp.Lines {
		amount := line.Cost.Amount
		if line.Allocation == pricingdomain.AllocationShared {
			if comp.ParticipantCount <= 0 {
				return nil, fmt.Errorf("%w: shared line %q with participant count %d",
					pricingdomain.ErrConfiguration, line.Key, comp.ParticipantCount)
			}
			amount = money.RoundBank(amount.Div(decimal.NewFromInt(int64(comp.ParticipantCount))), 2)
		}
		add(p.resolveVendor(ctx, tx, line), amount)
	}

	for _, rental := range comp.Rentals {
		add(0, rental.UnitCost.Amount.Mul(decimal.NewFromInt(int64(rental.Quantity))))
	}

	shares := make([]share, 0, len(order))
	for _, vendorID := range order {
		shares = append(shares, share{vendorID: vendorID, amount: byVendor[vendorID]})
	}
	return shares, nil
}

func (p *Poster) resolveVendor(ctx context.Context, tx *gorm.DB, line pricingdomain.Line) snowflake.ID {
	if line.ContractID == 0 {
		return 0
	}
	contract, err := p.contracts.FindByID(ctx, tx, line.ContractID)
	if err != nil || contract == nil || contract.CounterpartyID == 0 {
		p.log.Warn("vendor unresolved at posting time, cost falls back to unattributed payables",
			zap.String("line", line.Key),
			zap.Int64("contract_id", int64(line.ContractID)),
			zap.Error(err),
		)
		return 0
	}
	return contract.CounterpartyID
}
