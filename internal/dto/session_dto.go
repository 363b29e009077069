package dto

import "github.com/shopspring/decimal"

// CurrencyAmount is one {currency, amount} pair, used for drawer allocations,
// cashbox additions and counted closing balances.
type CurrencyAmount struct {
	CurrencyID string          `json:"currency_id" validate:"required,uuid"`
	Amount     decimal.Decimal `json:"amount"      validate:"min=0"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CloseSessionRequest struct {
	// ActualClosingBalances are the operator-counted amounts per currency.
	ActualClosingBalances []CurrencyAmount `json:"actual_closing_balances" validate:"required,min=1,dive"`
}

type AddCashboxRequest struct {
	Additions []CurrencyAmount `json:"additions" validate:"required,min=1,dive"`
}

// CashboxAdditionResponse is one journaled mid-shift cash injection.
type CashboxAdditionResponse struct {
	ID           string          `json:"id"`
	CurrencyID   string          `json:"currency_id"`
	CurrencyCode string          `json:"currency_code,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	AddedBy      string          `json:"added_by"`
	CreatedAt    string          `json:"created_at"`
}

type OpenCasherSessionRequest struct {
	CasherID        string           `json:"casher_id"        validate:"required,uuid"`
	OpeningBalances []CurrencyAmount `json:"opening_balances" validate:"required,min=1,dive"`
}

type CloseCasherSessionRequest struct {
	ActualClosingBalances []CurrencyAmount `json:"actual_closing_balances" validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RateSnapshotResponse struct {
	CurrencyID    string          `json:"currency_id"`
	CurrencyCode  string          `json:"currency_code,omitempty"`
	RateToUSD     decimal.Decimal `json:"rate_to_usd"`
	BuyRateToUSD  decimal.Decimal `json:"buy_rate_to_usd"`
	SellRateToUSD decimal.Decimal `json:"sell_rate_to_usd"`
}

type SessionResponse struct {
	ID         string                 `json:"id"`
	Status     string                 `json:"status"`
	OpenedBy   string                 `json:"opened_by"`
	OpenedAt   string                 `json:"opened_at"`
	ClosedBy   *string                `json:"closed_by,omitempty"`
	ClosedAt   *string                `json:"closed_at,omitempty"`
	OpenRates  []RateSnapshotResponse `json:"open_exchange_rates,omitempty"`
	CloseRates []RateSnapshotResponse `json:"close_exchange_rates,omitempty"`
}

// BalanceResponse is the per-currency balance projection for either scope
// (shop session or casher drawer).
type BalanceResponse struct {
	CurrencyID           string           `json:"currency_id"`
	CurrencyCode         string           `json:"currency_code"`
	OpeningBalance       decimal.Decimal  `json:"opening_balance"`
	TotalIn              decimal.Decimal  `json:"total_in"`
	TotalOut             decimal.Decimal  `json:"total_out"`
	SystemBalance        decimal.Decimal  `json:"system_balance"`
	ActualClosingBalance *decimal.Decimal `json:"actual_closing_balance,omitempty"`
	Difference           *decimal.Decimal `json:"difference,omitempty"`
}

type CasherSessionResponse struct {
	ID            string            `json:"id"`
	CashSessionID string            `json:"cash_session_id"`
	CasherID      string            `json:"casher_id"`
	CasherName    string            `json:"casher_name,omitempty"`
	Status        string            `json:"status"`
	OpenedAt      string            `json:"opened_at"`
	ClosedAt      *string           `json:"closed_at,omitempty"`
	Balances      []BalanceResponse `json:"balances,omitempty"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
