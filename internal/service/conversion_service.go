package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// amountScale is the precision amounts are rounded to. Rates are stored at 8
// decimal places; derived amounts at 6 so recomputation is bit-reproducible.
const amountScale = 6

// overrideEpsilon: a manual override within this distance of the computed
// amount is treated as rounding noise, not an adjustment.
var overrideEpsilon = decimal.RequireFromString("0.01")

// ConversionResult carries the converted amount with the full rate snapshot
// and profit decomposition. Computed is always the engine's figure; Actual
// differs only when an authorized override was applied, and then Adjusted is
// set so reconciliation can flag the transaction.
type ConversionResult struct {
	Computed        decimal.Decimal
	Actual          decimal.Decimal
	Adjusted        bool
	USDIntermediate decimal.Decimal
	FromRate        RateTriple
	ToRate          RateTriple
	ProfitFromUSD   decimal.Decimal
	ProfitToUSD     decimal.Decimal
	TotalProfitUSD  decimal.Decimal
}

// ConversionService converts between currencies over the buy/sell spread and
// attributes the spread profit against the reference mid-rate. Pure read of
// the registry: rates are copied into the result, never referenced live.
type ConversionService interface {
	Convert(ctx context.Context, fromCurrencyID, toCurrencyID uuid.UUID, amount decimal.Decimal) (*ConversionResult, error)
	// ConvertWithOverride applies a manual converted amount on top of Convert.
	ConvertWithOverride(ctx context.Context, fromCurrencyID, toCurrencyID uuid.UUID, amount decimal.Decimal, actual *decimal.Decimal) (*ConversionResult, error)
}

type conversionService struct {
	registry RegistryService
}

func NewConversionService(registry RegistryService) ConversionService {
	return &conversionService{registry: registry}
}

// Convert routes the amount through USD: usd = amount / buy(from), then
// converted = usd * sell(to). All rates are units-per-USD.
//
// Profit decomposition compares the spread actually applied against the
// reference mid-rate on each leg, both restated in USD:
//
//	profit_from = amount/ref(from) − amount/buy(from)   (buy-side spread)
//	profit_to   = usd − converted/ref(to)               (sell-side spread)
//
// With the usual configuration (buy ≥ ref ≥ sell, units-per-USD) both legs are
// non-negative.
func (s *conversionService) Convert(ctx context.Context, fromCurrencyID, toCurrencyID uuid.UUID, amount decimal.Decimal) (*ConversionResult, error) {
	if fromCurrencyID == toCurrencyID {
		return nil, ErrInvalidCurrencyPair
	}

	from, err := s.registry.GetRate(ctx, fromCurrencyID)
	if err != nil {
		return nil, err
	}
	to, err := s.registry.GetRate(ctx, toCurrencyID)
	if err != nil {
		return nil, err
	}
	if !from.BuyRateToUSD.IsPositive() || !from.RateToUSD.IsPositive() {
		return nil, &InvalidRateError{CurrencyCode: from.CurrencyCode}
	}
	if !to.SellRateToUSD.IsPositive() || !to.RateToUSD.IsPositive() {
		return nil, &InvalidRateError{CurrencyCode: to.CurrencyCode}
	}

	usd := amount.Div(from.BuyRateToUSD).Round(amountScale)
	converted := usd.Mul(to.SellRateToUSD).Round(amountScale)

	profitFrom := amount.Div(from.RateToUSD).Sub(amount.Div(from.BuyRateToUSD)).Round(amountScale)
	profitTo := usd.Sub(converted.Div(to.RateToUSD)).Round(amountScale)

	return &ConversionResult{
		Computed:        converted,
		Actual:          converted,
		USDIntermediate: usd,
		FromRate:        from,
		ToRate:          to,
		ProfitFromUSD:   profitFrom,
		ProfitToUSD:     profitTo,
		TotalProfitUSD:  profitFrom.Add(profitTo),
	}, nil
}

func (s *conversionService) ConvertWithOverride(ctx context.Context, fromCurrencyID, toCurrencyID uuid.UUID, amount decimal.Decimal, actual *decimal.Decimal) (*ConversionResult, error) {
	result, err := s.Convert(ctx, fromCurrencyID, toCurrencyID, amount)
	if err != nil {
		return nil, err
	}
	if actual != nil {
		result.Actual = *actual
		result.Adjusted = actual.Sub(result.Computed).Abs().GreaterThan(overrideEpsilon)
	}
	return result, nil
}
