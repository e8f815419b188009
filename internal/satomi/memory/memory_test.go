package memory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seijun/satomi/internal/satomi/extract"
	"github.com/seijun/satomi/internal/satomi/intent"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

const testAddr = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"

func TestRecordUserMessageUpdatesProjections(t *testing.T) {
	m := New()
	amt := decimal.RequireFromString("0.01")
	in := intent.Intent{Kind: intent.KindSend}
	m.RecordUserMessage("send 0.01 btc to "+testAddr+" fast", &in, extract.Entities{
		Amount: &amt, Unit: extract.UnitBTC, Address: testAddr, FeeLevel: extract.FeeFast,
	})

	assert.Equal(t, testAddr, m.LastAddress())
	got, unit := m.LastAmount()
	require.NotNil(t, got)
	assert.True(t, got.Equal(amt))
	assert.Equal(t, extract.UnitBTC, unit)
	assert.Equal(t, extract.FeeFast, m.LastFeeLevel())
	require.NotNil(t, m.LastIntent())
	assert.Equal(t, intent.KindSend, m.LastIntent().Kind)
}

func TestAbsenceNeverClears(t *testing.T) {
	m := New()
	amt := decimal.RequireFromString("0.01")
	m.RecordUserMessage("send 0.01 btc to "+testAddr, nil, extract.Entities{
		Amount: &amt, Unit: extract.UnitBTC, Address: testAddr,
	})
	m.RecordUserMessage("what's my balance", nil, extract.Entities{})

	assert.Equal(t, testAddr, m.LastAddress())
	got, _ := m.LastAmount()
	require.NotNil(t, got)
	assert.True(t, got.Equal(amt))
}

func TestSentinelAmountsAreNotRemembered(t *testing.T) {
	m := New()
	m.RecordUserMessage("send everything", nil, extract.Entities{Amount: &extract.AmountAll})
	got, _ := m.LastAmount()
	assert.Nil(t, got)

	m.RecordUserMessage("send half", nil, extract.Entities{Amount: &extract.AmountHalf})
	got, _ = m.LastAmount()
	assert.Nil(t, got)
}

func TestConfirmCancelUnknownNeverBecomeLastIntent(t *testing.T) {
	m := New()
	send := intent.Intent{Kind: intent.KindSend}
	m.RecordUserMessage("send some btc", &send, extract.Entities{})

	for _, in := range []intent.Intent{
		{Kind: intent.KindConfirmAction},
		{Kind: intent.KindCancelAction},
		intent.Unknown("??"),
	} {
		cp := in
		m.RecordUserMessage("x", &cp, extract.Entities{})
	}

	require.NotNil(t, m.LastIntent())
	assert.Equal(t, intent.KindSend, m.LastIntent().Kind)
}

func TestRecordAIResponseShownProjections(t *testing.T) {
	m := New()
	bal := int64(5_000_000)
	txs := []wallet.Tx{{TxID: "aa01"}, {TxID: "bb02"}}
	m.RecordAIResponse("balance and history", ShownData{BalanceSats: &bal, Transactions: txs})

	require.NotNil(t, m.LastShownBalance())
	assert.Equal(t, bal, *m.LastShownBalance())
	assert.Len(t, m.LastShownTransactions(), 2)

	// A displayed receive address counts as the most recently mentioned one.
	m.RecordAIResponse("your address", ShownData{ReceiveAddress: testAddr})
	assert.Equal(t, testAddr, m.LastShownAddress())
	assert.Equal(t, testAddr, m.LastAddress())

	// A completed send updates both the sent tx and the last txid.
	sent := wallet.Tx{TxID: "cc03", AmountSats: -1000}
	m.RecordAIResponse("sent", ShownData{SentTx: &sent})
	require.NotNil(t, m.LastSentTx())
	assert.Equal(t, "cc03", m.LastSentTx().TxID)
	assert.Equal(t, "cc03", m.LastTxID())
}

func TestTurnsAreBounded(t *testing.T) {
	m := New()
	for i := 0; i < maxTurns+10; i++ {
		m.RecordUserMessage("hello", nil, extract.Entities{})
	}
	assert.Len(t, m.Turns(), maxTurns)
}

func TestBehavioralSignals(t *testing.T) {
	m := New()
	assert.Equal(t, "en", m.Language())

	m.RecordUserMessage("hola, cuánto tengo de saldo", nil, extract.Entities{})
	assert.Equal(t, "es", m.Language())

	assert.False(t, m.UsesEmoji())
	m.RecordUserMessage("gracias 🎉", nil, extract.Entities{})
	assert.True(t, m.UsesEmoji())

	assert.Positive(t, m.AvgMessageLength())
}

func TestReset(t *testing.T) {
	m := New()
	m.RecordUserMessage("send 0.01 btc to "+testAddr, nil, extract.Entities{Address: testAddr})
	m.Reset()

	assert.Empty(t, m.LastAddress())
	assert.Empty(t, m.Turns())
	assert.Equal(t, "en", m.Language())
}
