package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountReceivable AccountType = "receivable"
	AccountRevenue    AccountType = "revenue"
	AccountExpense    AccountType = "expense"
	AccountPayable    AccountType = "payable"
)

// OwnerTypeOrganization is currently the only account owner kind; shops
// and vendors are both organizations.
const OwnerTypeOrganization = "organization"

// Account is lazily materialized on first use and unique per
// (owner_type, owner_id, account_type, currency).
type Account struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OwnerType string       `gorm:"type:text;not null;uniqueIndex:ux_ledger_accounts_owner,priority:1"`
	OwnerID   snowflake.ID `gorm:"not null;uniqueIndex:ux_ledger_accounts_owner,priority:2"`
	Type      AccountType  `gorm:"column:account_type;type:text;not null;uniqueIndex:ux_ledger_accounts_owner,priority:3"`
	Currency  string       `gorm:"type:text;not null;uniqueIndex:ux_ledger_accounts_owner,priority:4"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string { return "ledger_accounts" }

type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

type Transaction struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BookingID snowflake.ID `gorm:"not null;index"`
	Memo      string       `gorm:"type:text"`
	PostedAt  time.Time    `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Entries []Entry `gorm:"foreignKey:TransactionID"`
}

func (Transaction) TableName() string { return "ledger_transactions" }

// Balanced reports whether debits equal credits. The poster derives both
// sides from the same totals, so this holds for every transaction it
// produces; the method exists for assertions, not enforcement.
func (t Transaction) Balanced() bool {
	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range t.Entries {
		switch e.Direction {
		case DirectionDebit:
			debits = debits.Add(e.Amount)
		case DirectionCredit:
			credits = credits.Add(e.Amount)
		}
	}
	return debits.Equal(credits)
}

type Entry struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	TransactionID snowflake.ID    `gorm:"not null;index"`
	AccountID     snowflake.ID    `gorm:"not null;index"`
	Direction     Direction       `gorm:"type:text;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency      string          `gorm:"type:text;not null"`
}

func (Entry) TableName() string { return "ledger_entries" }
