package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency holds the shop's rates for one currency against USD.
// All three rates are expressed as units-per-USD. Rates are mutable over time;
// any computation that needs rate stability must copy the values out (see
// service.RateTriple) — never hold a loaded Currency across a conversion.
type Currency struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code string    `gorm:"type:varchar(10);uniqueIndex;not null"`
	Name string    `gorm:"not null"`
	// RateToUSD is the reference mid-rate used for profit attribution.
	RateToUSD     decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	BuyRateToUSD  decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	SellRateToUSD decimal.Decimal `gorm:"type:decimal(24,8);not null"`
	IsCrypto      bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName overrides GORM's default pluralization (currencys → currencies).
func (Currency) TableName() string { return "currencies" }
