package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// GetOrCreateAccount is safe under concurrent first use: it inserts
	// with conflict-ignore semantics and re-reads, relying on the unique
	// index over (owner_type, owner_id, account_type, currency).
	GetOrCreateAccount(ctx context.Context, tx *gorm.DB, ownerType string, ownerID snowflake.ID, accountType AccountType, currency string) (*Account, error)

	// CreateTransaction persists the transaction and all its entries.
	CreateTransaction(ctx context.Context, tx *gorm.DB, txn *Transaction) error

	FindTransaction(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
}
