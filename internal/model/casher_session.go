package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CasherCashSession is one cashier's drawer within a shop-wide session. Many
// can exist per session (one per drawer opened that shift), each with its own
// active → pending → closed lifecycle. Immutable once closed.
type CasherCashSession struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID uuid.UUID `gorm:"type:uuid;not null;index"`
	CasherID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Status        string    `gorm:"type:varchar(20);not null;default:'active';index"`
	OpenedAt      time.Time
	ClosedBy      *uuid.UUID `gorm:"type:uuid"`
	ClosedAt      *time.Time

	Balances []CasherSessionBalance `gorm:"foreignKey:CasherCashSessionID"`
	Casher   *User                  `gorm:"foreignKey:CasherID"`
}

// TableName overrides GORM's default pluralization.
func (CasherCashSession) TableName() string { return "casher_cash_sessions" }

// CasherSessionBalance is the per-currency float of one drawer: the allocated
// opening amount, denormalized in/out totals, and the close-time reconciliation
// columns (system-computed vs operator-counted).
type CasherSessionBalance struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CasherCashSessionID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_casher_balance_currency"`
	CurrencyID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_casher_balance_currency"`
	OpeningBalance       decimal.Decimal  `gorm:"type:decimal(24,6);not null"`
	TotalIn              decimal.Decimal  `gorm:"type:decimal(24,6);not null;default:0"`
	TotalOut             decimal.Decimal  `gorm:"type:decimal(24,6);not null;default:0"`
	SystemBalance        *decimal.Decimal `gorm:"type:decimal(24,6)"`
	ActualClosingBalance *decimal.Decimal `gorm:"type:decimal(24,6)"`
	Difference           *decimal.Decimal `gorm:"type:decimal(24,6)"`
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Currency *Currency `gorm:"foreignKey:CurrencyID"`
}
