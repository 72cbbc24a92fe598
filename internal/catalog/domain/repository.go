package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Item, error)
	// FindActiveByName matches DisplayName exactly. Substring matching
	// would make component lookup non-deterministic.
	FindActiveByName(ctx context.Context, db *gorm.DB, displayName string) (*Item, error)
}
