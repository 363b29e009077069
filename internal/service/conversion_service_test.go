package service_test

import (
	"context"
	"testing"

	"github.com/kassemKu/sibai-transactions-sub000/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRoutesThroughUSD(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	eur := e.addCurrency(t, "EUR", "0.92", "0.94", "0.90")

	result, err := e.conversion.Convert(context.Background(), usd, eur, dec("50"))
	require.NoError(t, err)

	assert.True(t, result.USDIntermediate.Equal(dec("50")), "usd = %s", result.USDIntermediate)
	assert.True(t, result.Computed.Equal(dec("45")), "computed = %s", result.Computed)
	assert.True(t, result.Actual.Equal(dec("45")))
	assert.False(t, result.Adjusted)

	// USD buy equals its reference, so the buy side earns nothing; the sell
	// side earns 50 − 45/0.92.
	assert.True(t, result.ProfitFromUSD.IsZero(), "profit_from = %s", result.ProfitFromUSD)
	assert.True(t, result.ProfitToUSD.Equal(dec("1.086957")), "profit_to = %s", result.ProfitToUSD)
	assert.True(t, result.TotalProfitUSD.Equal(dec("1.086957")))

	assert.Equal(t, "USD", result.FromRate.CurrencyCode)
	assert.Equal(t, "EUR", result.ToRate.CurrencyCode)
}

func TestConvertBuySideSpread(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	eur := e.addCurrency(t, "EUR", "0.92", "0.94", "0.90")

	result, err := e.conversion.Convert(context.Background(), eur, usd, dec("94"))
	require.NoError(t, err)

	assert.True(t, result.USDIntermediate.Equal(dec("100")), "usd = %s", result.USDIntermediate)
	assert.True(t, result.Computed.Equal(dec("100")))
	assert.True(t, result.ProfitFromUSD.Equal(dec("2.173913")), "profit_from = %s", result.ProfitFromUSD)
	assert.True(t, result.ProfitToUSD.IsZero())
	assert.True(t, result.TotalProfitUSD.Equal(dec("2.173913")))
}

func TestConvertIsDeterministic(t *testing.T) {
	e := newEnv()
	syp := e.addCurrency(t, "SYP", "13000", "13100", "12900")
	try := e.addCurrency(t, "TRY", "34.15", "34.40", "33.90")

	first, err := e.conversion.Convert(context.Background(), syp, try, dec("2500000"))
	require.NoError(t, err)
	second, err := e.conversion.Convert(context.Background(), syp, try, dec("2500000"))
	require.NoError(t, err)

	assert.True(t, first.Computed.Equal(second.Computed))
	assert.True(t, first.USDIntermediate.Equal(second.USDIntermediate))
	assert.True(t, first.TotalProfitUSD.Equal(second.TotalProfitUSD))
}

func TestConvertRejectsSamePair(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")

	_, err := e.conversion.Convert(context.Background(), usd, usd, dec("10"))
	assert.ErrorIs(t, err, service.ErrInvalidCurrencyPair)
}

func TestConvertRejectsZeroRate(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	bad := e.addCurrency(t, "XXX", "0.5", "0", "0.4")

	_, err := e.conversion.Convert(context.Background(), bad, usd, dec("10"))
	var rateErr *service.InvalidRateError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, "XXX", rateErr.CurrencyCode)
}

func TestConvertWithOverride(t *testing.T) {
	e := newEnv()
	usd := e.addCurrency(t, "USD", "1", "1", "1")
	eur := e.addCurrency(t, "EUR", "0.92", "0.94", "0.90")
	ctx := context.Background()

	t.Run("nil override keeps computed", func(t *testing.T) {
		result, err := e.conversion.ConvertWithOverride(ctx, usd, eur, dec("50"), nil)
		require.NoError(t, err)
		assert.True(t, result.Actual.Equal(result.Computed))
		assert.False(t, result.Adjusted)
	})

	t.Run("within epsilon is rounding noise", func(t *testing.T) {
		actual := dec("45.005")
		result, err := e.conversion.ConvertWithOverride(ctx, usd, eur, dec("50"), &actual)
		require.NoError(t, err)
		assert.True(t, result.Actual.Equal(dec("45.005")))
		assert.False(t, result.Adjusted)
	})

	t.Run("beyond epsilon flags adjusted", func(t *testing.T) {
		actual := dec("44.5")
		result, err := e.conversion.ConvertWithOverride(ctx, usd, eur, dec("50"), &actual)
		require.NoError(t, err)
		assert.True(t, result.Actual.Equal(dec("44.5")))
		assert.True(t, result.Computed.Equal(dec("45")), "computed preserved for audit")
		assert.True(t, result.Adjusted)
	})
}
