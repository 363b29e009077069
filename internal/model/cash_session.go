package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash session states. A session (and a casher drawer) walks active → pending →
// closed, never skipping pending and never leaving closed.
const (
	SessionActive  = "active"
	SessionPending = "pending"
	SessionClosed  = "closed"
)

// Rate snapshot phases.
const (
	SnapshotOpen  = "open"
	SnapshotClose = "close"
)

// CashSession is the shop-wide shift. At most one session is non-closed at any
// time — enforced by a partial unique index (see infra.applySchemaPatches) in
// the same unit of work that creates the row.
type CashSession struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status   string    `gorm:"type:varchar(20);not null;default:'active';index"`
	OpenedBy uuid.UUID `gorm:"type:uuid;not null"`
	OpenedAt time.Time
	ClosedBy *uuid.UUID `gorm:"type:uuid"`
	ClosedAt *time.Time

	OpeningBalances []SessionOpeningBalance `gorm:"foreignKey:CashSessionID"`
	Balances        []CashBalance           `gorm:"foreignKey:CashSessionID"`
	RateSnapshots   []SessionRateSnapshot   `gorm:"foreignKey:CashSessionID"`
}

// SessionOpeningBalance is the immutable record of what each currency opened
// with: the prior session's actual closing balance, or zero. One row per
// currency per session, written once at open.
type SessionOpeningBalance struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_session_opening_currency"`
	CurrencyID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_session_opening_currency"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	CreatedAt      time.Time

	Currency *Currency `gorm:"foreignKey:CurrencyID"`
}

// CashBalance is the running shop-wide balance row per currency per session.
// TotalIn/TotalOut are denormalized aggregates maintained inside the same
// transaction as every ledger append; they must always be recomputable from
// cash_movements (balance determinism audit).
//
// OpeningBalance starts equal to the SessionOpeningBalance row and is the only
// mutable part outside close: cashbox additions during active, and the actual
// closing balances of casher drawers folded back in at drawer close.
type CashBalance struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cash_balance_currency"`
	CurrencyID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cash_balance_currency"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	TotalIn        decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`
	TotalOut       decimal.Decimal `gorm:"type:decimal(24,6);not null;default:0"`
	// ClosingBalance is system-computed at close; ActualClosingBalance is the
	// operator-counted amount. Difference = actual − closing.
	ClosingBalance       *decimal.Decimal `gorm:"type:decimal(24,6)"`
	ActualClosingBalance *decimal.Decimal `gorm:"type:decimal(24,6)"`
	Difference           *decimal.Decimal `gorm:"type:decimal(24,6)"`
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Currency *Currency `gorm:"foreignKey:CurrencyID"`
}

// SessionRateSnapshot freezes one currency's rate triple at session open or
// close. Immutable once written.
type SessionRateSnapshot struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CurrencyID    uuid.UUID       `gorm:"type:uuid;not null"`
	Phase         string          `gorm:"type:varchar(10);not null"` // "open" | "close"
	RateToUSD     decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	BuyRateToUSD  decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	SellRateToUSD decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	CreatedAt     time.Time
}
