package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the party directory consumed by pricing and ledger
// posting. Implemented over gorm here; shaped for RPC extraction.
type Repository interface {
	FindOrganization(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	FindPerson(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Person, error)
}
