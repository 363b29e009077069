package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CalculateRequest struct {
	FromCurrencyID string          `json:"from_currency_id" validate:"required,uuid"`
	ToCurrencyID   string          `json:"to_currency_id"   validate:"required,uuid"`
	Amount         decimal.Decimal `json:"amount"           validate:"required,gt=0"`
}

type CreateTransactionRequest struct {
	FromCurrencyID string          `json:"from_currency_id" validate:"required,uuid"`
	ToCurrencyID   string          `json:"to_currency_id"   validate:"required,uuid"`
	Amount         decimal.Decimal `json:"amount"           validate:"required,gt=0"`
	// AssignedCasherID hands the conversion to another cashier's drawer; the
	// transaction stays pending until that cashier confirms it. Empty means
	// self-executed: completed immediately against the creator's drawer.
	AssignedCasherID *string `json:"assigned_casher_id" validate:"omitempty,uuid"`
	// ActualConvertedAmount overrides the computed amount (authorized actors
	// only). Both values are persisted for the reconciliation audit.
	ActualConvertedAmount *decimal.Decimal `json:"actual_converted_amount" validate:"omitempty,gt=0"`
	CustomerID            *string          `json:"customer_id"             validate:"omitempty,uuid"`
	Notes                 *string          `json:"notes"`
}

type TransactionFilter struct {
	CashSessionID string `form:"cash_session_id"`
	CasherID      string `form:"casher_id"`
	Status        string `form:"status"`
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CalculateResponse struct {
	ConvertedAmount decimal.Decimal      `json:"converted_amount"`
	USDIntermediate decimal.Decimal      `json:"usd_intermediate"`
	FromRate        RateSnapshotResponse `json:"from_rate"`
	ToRate          RateSnapshotResponse `json:"to_rate"`
	ProfitFromUSD   decimal.Decimal      `json:"profit_from_usd"`
	ProfitToUSD     decimal.Decimal      `json:"profit_to_usd"`
	TotalProfitUSD  decimal.Decimal      `json:"total_profit_usd"`
}

type TransactionResponse struct {
	ID               string          `json:"id"`
	CashSessionID    string          `json:"cash_session_id"`
	CreatedBy        string          `json:"created_by"`
	AssignedTo       string          `json:"assigned_to"`
	FromCurrencyID   string          `json:"from_currency_id"`
	FromCurrencyCode string          `json:"from_currency_code,omitempty"`
	ToCurrencyID     string          `json:"to_currency_id"`
	ToCurrencyCode   string          `json:"to_currency_code,omitempty"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	ComputedAmount   decimal.Decimal `json:"computed_amount"`
	ConvertedAmount  decimal.Decimal `json:"converted_amount"`
	Adjusted         bool            `json:"adjusted"`
	USDIntermediate  decimal.Decimal `json:"usd_intermediate"`
	ProfitFromUSD    decimal.Decimal `json:"profit_from_usd"`
	ProfitToUSD      decimal.Decimal `json:"profit_to_usd"`
	TotalProfitUSD   decimal.Decimal `json:"total_profit_usd"`
	Status           string          `json:"status"`
	Notes            *string         `json:"notes,omitempty"`
	CreatedAt        string          `json:"created_at"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
