package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Tag identifies what a vendor contract prices.
type Tag string

const (
	TagVendorPricing Tag = "vendor_pricing"     // boat charters, scoped to a site
	TagGasPricing    Tag = "gas_vendor_pricing" // tank fills, scoped to a shop
)

// ScopeKind names the record type a contract is scoped to.
type ScopeKind string

const (
	ScopeKindSite         ScopeKind = "site"
	ScopeKindOrganization ScopeKind = "organization"
)

// Contract is a vendor agreement with semi-structured terms. Read-only
// to the pricing core; lifecycle is managed elsewhere.
type Contract struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	Tag            Tag               `gorm:"type:text;not null;index:ix_vendor_contracts_scope,priority:1"`
	ScopeKind      ScopeKind         `gorm:"type:text;not null;index:ix_vendor_contracts_scope,priority:2"`
	ScopeRef       snowflake.ID      `gorm:"not null;index:ix_vendor_contracts_scope,priority:3"`
	CounterpartyID snowflake.ID      `gorm:"not null;index"` // the vendor organization owed under this contract
	Terms          datatypes.JSONMap `gorm:"type:jsonb"`
	ValidFrom      time.Time         `gorm:"not null"`
	ValidTo        *time.Time        `gorm:""` // nil = open-ended; window is [from, to)
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Contract) TableName() string { return "vendor_contracts" }

// EffectiveAt reports whether the contract's validity window covers t.
func (c Contract) EffectiveAt(t time.Time) bool {
	if t.Before(c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && !t.Before(*c.ValidTo) {
		return false
	}
	return true
}
