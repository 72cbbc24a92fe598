package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Registry is the contract-registry collaborator. FindEffective returns
// (nil, nil) when no contract covers asOf; callers decide whether that
// is an error.
type Registry interface {
	FindEffective(ctx context.Context, db *gorm.DB, tag Tag, kind ScopeKind, ref snowflake.ID, asOf time.Time) (*Contract, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
}
