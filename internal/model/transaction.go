package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction states. Only "completed" transactions contribute to balances.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionCanceled  = "canceled"
)

// Transaction is one currency conversion. The rate triples of both currencies
// are copied in at creation time (never read live at settlement), so a later
// rate change can never retroactively alter a recorded conversion.
type Transaction struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedBy     uuid.UUID `gorm:"type:uuid;not null"`
	// AssignedTo is the cashier whose drawer the conversion moves through.
	AssignedTo     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID     *uuid.UUID `gorm:"type:uuid"`
	FromCurrencyID uuid.UUID  `gorm:"type:uuid;not null"`
	ToCurrencyID   uuid.UUID  `gorm:"type:uuid;not null"`

	OriginalAmount decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	// ComputedAmount is what the conversion engine produced; ConvertedAmount is
	// what was actually handed over. They differ only on a manual override,
	// flagged by Adjusted (|actual − computed| > 0.01).
	ComputedAmount  decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	ConvertedAmount decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	Adjusted        bool            `gorm:"not null;default:false"`
	USDIntermediate decimal.Decimal `gorm:"type:decimal(24,6);not null"`

	// Rate snapshots at the instant of conversion.
	FromRateToUSD     decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	FromBuyRateToUSD  decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	FromSellRateToUSD decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	ToRateToUSD       decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	ToBuyRateToUSD    decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	ToSellRateToUSD   decimal.Decimal `gorm:"type:decimal(24,8);not null"`

	ProfitFromUSD  decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	ProfitToUSD    decimal.Decimal `gorm:"type:decimal(24,6);not null"`
	TotalProfitUSD decimal.Decimal `gorm:"type:decimal(24,6);not null"`

	Status    string `gorm:"type:varchar(20);not null;default:'pending';index"`
	Notes     *string
	ClosedBy  *uuid.UUID `gorm:"type:uuid"`
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	FromCurrency *Currency      `gorm:"foreignKey:FromCurrencyID"`
	ToCurrency   *Currency      `gorm:"foreignKey:ToCurrencyID"`
	Movements    []CashMovement `gorm:"foreignKey:TransactionID"`
}
