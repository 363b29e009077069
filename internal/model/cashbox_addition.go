package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashboxAddition records one mid-shift cash injection into the shop pool.
// The addition itself mutates CashBalance.OpeningBalance; this row is the
// audit trail that keeps the opening figure recomputable (carry-forward +
// Σ additions + drawer fold-backs). Written once, never updated.
type CashboxAddition struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CurrencyID    uuid.UUID       `gorm:"type:uuid;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	AddedBy       uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt     time.Time

	Currency *Currency `gorm:"foreignKey:CurrencyID"`
}
