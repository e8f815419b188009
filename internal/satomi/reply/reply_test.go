package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponderLoadsAndValidates(t *testing.T) {
	r, err := NewResponder(1)
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestRenderSubstitutesFields(t *testing.T) {
	r, err := NewResponder(1)
	require.NoError(t, err)

	out := r.Render("price", map[string]string{"price": "64000.00", "currency": "USD"})
	assert.Contains(t, out, "64000.00")
	assert.Contains(t, out, "USD")
	assert.NotContains(t, out, "{price}")
}

func TestRenderSeededDeterminism(t *testing.T) {
	a, err := NewResponder(42)
	require.NoError(t, err)
	b, err := NewResponder(42)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.Equal(t,
			a.Render("greeting", nil),
			b.Render("greeting", nil))
	}
}

func TestRenderUnknownPoolFallsBack(t *testing.T) {
	r, err := NewResponder(1)
	require.NoError(t, err)

	out := r.Render("no_such_pool", nil)
	assert.NotEmpty(t, out)
}

func TestPoolsUsedByDispatchExist(t *testing.T) {
	r, err := NewResponder(1)
	require.NoError(t, err)

	for _, key := range []string{
		"greeting", "about", "help", "unknown", "best_guess",
		"balance", "balance_with_pending", "balance_hidden", "hide_balance", "show_balance",
		"history", "history_empty", "tx_detail", "tx_not_found",
		"price", "convert", "fee_estimate", "unavailable",
		"receive", "new_address", "refresh", "network_status", "wallet_health",
		"utxo_list", "settings", "export", "explain", "explain_unknown",
		"ask_address", "ask_amount", "reprompt_address", "reprompt_amount",
		"reprompt_confirmation", "confirm_prompt", "modified", "cancelled",
		"nothing_pending", "processing", "send_success", "send_error",
		"resume_flow", "bump_fee", "bump_fee_missing_tx", "seed_phrase_warning",
	} {
		assert.True(t, r.Has(key), "missing pool %q", key)
	}
}
