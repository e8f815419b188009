package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmountEquivalentForms(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		unit  Unit
	}{
		{"send 0.005 btc", "0.005", UnitBTC},
		{"send 0.005 BTC please", "0.005", UnitBTC},
		{"send .005 btc", "0.005", UnitBTC},
		{"send 500000 sats", "500000", UnitSats},
		{"send 500k sats", "500000", UnitSats},
		{"send 1,000,000 sats", "1000000", UnitSats},
		{"five hundred thousand sats", "500000", UnitSats},
		{"send a bitcoin", "1", UnitBTC},
		{"two btc", "2", UnitBTC},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			amt, unit, cur, ok := ExtractAmount(tt.in)
			require.True(t, ok)
			assert.True(t, amt.Equal(decimal.RequireFromString(tt.want)),
				"got %s want %s", amt, tt.want)
			assert.Equal(t, tt.unit, unit)
			assert.Empty(t, cur)
		})
	}
}

func TestExtractAmountSentinels(t *testing.T) {
	all := []string{
		"send all of it", "send everything", "send the max",
		"envía todo", "envoie tout", "send my entire balance",
	}
	for _, in := range all {
		amt, _, _, ok := ExtractAmount(in)
		require.True(t, ok, in)
		assert.True(t, amt.Equal(AmountAll), in)
	}

	half := []string{"send half", "envía la mitad", "envoie la moitié"}
	for _, in := range half {
		amt, _, _, ok := ExtractAmount(in)
		require.True(t, ok, in)
		assert.True(t, amt.Equal(AmountHalf), in)
	}
}

func TestExtractAmountSatsPromotion(t *testing.T) {
	// Bare integers ≥1000 with no decimal point and no suffix read as sats.
	amt, unit, _, ok := ExtractAmount("send 5000")
	require.True(t, ok)
	assert.Equal(t, UnitSats, unit)
	assert.True(t, amt.Equal(decimal.NewFromInt(5000)))

	// Below the threshold stays unitless.
	amt, unit, _, ok = ExtractAmount("send 2")
	require.True(t, ok)
	assert.Equal(t, UnitNone, unit)
	assert.True(t, amt.Equal(decimal.NewFromInt(2)))

	// A decimal point blocks promotion.
	_, unit, _, ok = ExtractAmount("send 5000.0")
	require.True(t, ok)
	assert.Equal(t, UnitNone, unit)
}

func TestExtractAmountFiat(t *testing.T) {
	amt, unit, cur, ok := ExtractAmount("send $100 worth")
	require.True(t, ok)
	assert.Equal(t, UnitNone, unit)
	assert.Equal(t, "USD", cur)
	assert.True(t, amt.Equal(decimal.NewFromInt(100)))

	amt, _, cur, ok = ExtractAmount("send 50€ to my friend")
	require.True(t, ok)
	assert.Equal(t, "EUR", cur)
	assert.True(t, amt.Equal(decimal.NewFromInt(50)))

	amt, _, cur, ok = ExtractAmount("send 100 usd")
	require.True(t, ok)
	assert.Equal(t, "USD", cur)
	assert.True(t, amt.Equal(decimal.NewFromInt(100)))

	// Fiat amounts are not bounded by the bitcoin supply.
	amt, _, cur, ok = ExtractAmount("convert 100000000 usd")
	require.True(t, ok)
	assert.Equal(t, "USD", cur)
	assert.True(t, amt.Equal(decimal.NewFromInt(100_000_000)))
}

func TestExtractAmountRejectsNonsense(t *testing.T) {
	// Above total supply.
	_, _, _, ok := ExtractAmount("send 22000000 btc")
	assert.False(t, ok)

	// A custom fee rate is not an amount.
	_, _, _, ok = ExtractAmount("use 25 sats/vb")
	assert.False(t, ok)

	// A history count is not an amount.
	_, _, _, ok = ExtractAmount("show my last 5 transactions")
	assert.False(t, ok)

	// No number at all.
	_, _, _, ok = ExtractAmount("what is my balance")
	assert.False(t, ok)
}

func TestExtractFullSentence(t *testing.T) {
	e := Extract("send 0.01 BTC to bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq with a fast fee")
	require.NotNil(t, e.Amount)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, UnitBTC, e.Unit)
	assert.Equal(t, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", e.Address)
	assert.Equal(t, FeeFast, e.FeeLevel)
}

func TestExtractCustomFeeRate(t *testing.T) {
	level, rate := ExtractFee("send it at 25 sats/vb")
	assert.Equal(t, FeeCustom, level)
	assert.Equal(t, 25.0, rate)

	level, _ = ExtractFee("no rush at all")
	assert.Equal(t, FeeSlow, level)

	// "not urgent" must not be swallowed by the "urgent" keyword.
	level, _ = ExtractFee("it's not urgent")
	assert.Equal(t, FeeSlow, level)

	level, _ = ExtractFee("make it urgent")
	assert.Equal(t, FeeFast, level)
}

func TestExtractCount(t *testing.T) {
	c := ExtractCount("show my last 5 transactions")
	require.NotNil(t, c)
	assert.Equal(t, 5, *c)

	c = ExtractCount("3 transactions please")
	require.NotNil(t, c)
	assert.Equal(t, 3, *c)

	assert.Nil(t, ExtractCount("show my transactions"))
}

func TestExtractCurrency(t *testing.T) {
	assert.Equal(t, "EUR", ExtractCurrency("how much is that in euros?"))
	assert.Equal(t, "USD", ExtractCurrency("price in usd"))
	assert.Equal(t, "GBP", ExtractCurrency("£50"))
	assert.Empty(t, ExtractCurrency("what is my balance"))
}
