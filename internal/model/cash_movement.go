package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement directions.
const (
	MovementIn  = "in"
	MovementOut = "out"
)

// CashMovement is one immutable entry in the cash ledger: a single currency
// amount moving in or out of a cashier's drawer, caused by exactly one
// transaction. A completed conversion writes exactly two rows: "out" on the
// source currency the drawer dispenses and "in" on the destination currency it
// takes in. Movements are NEVER updated or deleted; balances are derived from
// them.
type CashMovement struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CashSessionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CurrencyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CasherID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type          string          `gorm:"type:varchar(10);not null"` // "in" | "out"
	Amount        decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	// ExchangeRate is the units-per-USD rate applied to this leg, copied from
	// the transaction snapshot.
	ExchangeRate decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	CreatedAt    time.Time

	Currency *Currency `gorm:"foreignKey:CurrencyID"`
}
