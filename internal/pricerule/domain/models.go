package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/scope"
	"github.com/shopspring/decimal"
)

// PriceRule prices a catalog item within one scope and validity window.
// Windows for the same item+scope must not overlap; that is enforced by
// the rule-management surface, not re-checked during resolution.
type PriceRule struct {
	ID           snowflake.ID     `gorm:"primaryKey"`
	ItemID       snowflake.ID     `gorm:"not null;index:ix_price_rules_item_scope,priority:1"`
	ScopeType    scope.Type       `gorm:"type:text;not null;index:ix_price_rules_item_scope,priority:2"`
	ScopeRef     snowflake.ID     `gorm:"not null;default:0;index:ix_price_rules_item_scope,priority:3"` // zero for global scope
	Amount       decimal.Decimal  `gorm:"type:numeric(12,4);not null"`
	Currency     string           `gorm:"type:text;not null"`
	CostAmount   *decimal.Decimal `gorm:"type:numeric(12,4)"` // vendor cost, when known
	CostCurrency *string          `gorm:"type:text"`
	Priority     int              `gorm:"not null;default:0"`
	ValidFrom    time.Time        `gorm:"not null"`
	ValidTo      *time.Time       `gorm:""` // nil = open-ended; window is [from, to)
	CreatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceRule) TableName() string { return "price_rules" }

// HasCost reports whether the rule carries an explicit vendor cost.
func (r PriceRule) HasCost() bool { return r.CostAmount != nil }

// Resolution is the outcome of a hierarchy lookup.
type Resolution struct {
	RuleID       snowflake.ID
	ScopeType    scope.Type
	Amount       decimal.Decimal
	Currency     string
	CostAmount   *decimal.Decimal
	CostCurrency string // falls back to Currency when the rule has no cost currency
}

// ErrNoPriceFound means no rule at any scope level matched.
var ErrNoPriceFound = errors.New("no_price_found")
