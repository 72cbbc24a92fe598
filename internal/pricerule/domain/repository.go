package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/scope"
	"gorm.io/gorm"
)

// Repository reads price rules for a single scope level. Candidates are
// ordered most-specific-wins: priority descending then newest valid_from.
type Repository interface {
	FindCandidates(ctx context.Context, db *gorm.DB, itemID snowflake.ID, s scope.Scope, at time.Time) ([]PriceRule, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PriceRule, error)
}

// Resolver walks the scope hierarchy for an item:
// agreement, then party, then organization, then global. The first level
// with an effective rule wins; it returns ErrNoPriceFound when none does.
type Resolver interface {
	Resolve(ctx context.Context, db *gorm.DB, itemID snowflake.ID, hints scope.Hints, at time.Time) (*Resolution, error)
}
