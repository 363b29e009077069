package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateCurrencyRequest struct {
	Code          string          `json:"code"             validate:"required,min=2,max=10,uppercase"`
	Name          string          `json:"name"             validate:"required"`
	RateToUSD     decimal.Decimal `json:"rate_to_usd"      validate:"required,gt=0"`
	BuyRateToUSD  decimal.Decimal `json:"buy_rate_to_usd"  validate:"required,gt=0"`
	SellRateToUSD decimal.Decimal `json:"sell_rate_to_usd" validate:"required,gt=0"`
	IsCrypto      bool            `json:"is_crypto"`
}

type UpdateRatesRequest struct {
	RateToUSD     decimal.Decimal `json:"rate_to_usd"      validate:"required,gt=0"`
	BuyRateToUSD  decimal.Decimal `json:"buy_rate_to_usd"  validate:"required,gt=0"`
	SellRateToUSD decimal.Decimal `json:"sell_rate_to_usd" validate:"required,gt=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CurrencyResponse struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	RateToUSD     decimal.Decimal `json:"rate_to_usd"`
	BuyRateToUSD  decimal.Decimal `json:"buy_rate_to_usd"`
	SellRateToUSD decimal.Decimal `json:"sell_rate_to_usd"`
	IsCrypto      bool            `json:"is_crypto"`
}
