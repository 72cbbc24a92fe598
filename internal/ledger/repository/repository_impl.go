package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	node *snowflake.Node
}

func Provide(node *snowflake.Node) domain.Repository {
	return &repository{node: node}
}

func (r *repository) GetOrCreateAccount(ctx context.Context, tx *gorm.DB, ownerType string, ownerID snowflake.ID, accountType domain.AccountType, currency string) (*domain.Account, error) {
	account := domain.Account{
		ID:        r.node.Generate(),
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Type:      accountType,
		Currency:  currency,
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&account).Error
	if err != nil {
		return nil, fmt.Errorf("materialize account: %w", err)
	}

	// Re-read so a concurrent creator's row wins over our candidate ID.
	var found domain.Account
	err = tx.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND account_type = ? AND currency = ?",
			ownerType, ownerID, accountType, currency).
		First(&found).Error
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *repository) CreateTransaction(ctx context.Context, tx *gorm.DB, txn *domain.Transaction) error {
	if txn.ID == 0 {
		txn.ID = r.node.Generate()
	}
	for i := range txn.Entries {
		if txn.Entries[i].ID == 0 {
			txn.Entries[i].ID = r.node.Generate()
		}
		txn.Entries[i].TransactionID = txn.ID
	}
	return tx.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransaction(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Preload("Entries").Where("id = ?", id).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
