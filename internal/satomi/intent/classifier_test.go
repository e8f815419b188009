package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seijun/satomi/internal/satomi/extract"
)

func classify(t *testing.T, text string) []Score {
	t.Helper()
	cls := NewClassifier()
	return cls.ScoredMatch(text, extract.Extract(text))
}

func TestClassifySendWithFullDetails(t *testing.T) {
	scores := classify(t, "send 0.01 BTC to bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	require.NotEmpty(t, scores)
	assert.Equal(t, KindSend, scores[0].Intent.Kind)
	assert.GreaterOrEqual(t, scores[0].Confidence, 0.85)
}

func TestClassifyExactKeywords(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
	}{
		{"what is my balance", KindBalance},
		{"show my transaction history", KindHistory},
		{"what's the bitcoin price", KindPrice},
		{"what are the network fees", KindFeeEstimate},
		{"refresh my wallet", KindRefreshWallet},
		{"open settings", KindSettings},
		{"help", KindHelp},
		{"list my utxos", KindUTXOList},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			scores := classify(t, tt.text)
			assert.Equal(t, tt.kind, scores[0].Intent.Kind)
			assert.InDelta(t, 0.95, scores[0].Confidence, 0.001)
		})
	}
}

func TestClassifyMultilingual(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
	}{
		{"cuánto tengo", KindBalance},
		{"envía 0.01 btc", KindSend},
		{"combien j'ai", KindBalance},
		{"envoie 0.01 btc", KindSend},
		{"cancela eso", KindCancelAction},
		{"annule", KindCancelAction},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			scores := classify(t, tt.text)
			assert.Equal(t, tt.kind, scores[0].Intent.Kind, "got %s", scores[0].Intent.Kind)
		})
	}
}

func TestClassifyPastTenseSendIsHistory(t *testing.T) {
	for _, text := range []string{
		"what did I send yesterday",
		"I just sent 0.01 btc, did it go through",
		"have I sent anything today",
	} {
		scores := classify(t, text)
		assert.Equal(t, KindHistory, scores[0].Intent.Kind, text)
		for _, s := range scores {
			assert.NotEqual(t, KindSend, s.Intent.Kind,
				"past-tense input must not match send: %s", text)
		}
	}
}

func TestClassifyGreetingOnlyWhenWholeMessage(t *testing.T) {
	scores := classify(t, "thanks!")
	assert.Equal(t, KindGreeting, scores[0].Intent.Kind)

	// With substance attached, the substantive category wins.
	scores = classify(t, "thanks, and what is my balance now")
	assert.Equal(t, KindBalance, scores[0].Intent.Kind)
}

func TestClassifyNewAddressOutranksReceive(t *testing.T) {
	scores := classify(t, "give me a new address")
	assert.Equal(t, KindNewAddress, scores[0].Intent.Kind)

	// Even when "receive" lands an exact keyword hit, an explicit
	// new-address phrase wins the ranking.
	scores = classify(t, "i want to receive on a fresh address")
	require.Equal(t, KindNewAddress, scores[0].Intent.Kind)
	for _, s := range scores[1:] {
		if s.Intent.Kind == KindReceive {
			assert.Less(t, s.Confidence, scores[0].Confidence)
		}
	}
}

func TestClassifyConfirmCancel(t *testing.T) {
	assert.Equal(t, KindConfirmAction, classify(t, "yes")[0].Intent.Kind)
	assert.Equal(t, KindConfirmAction, classify(t, "go ahead and do it")[0].Intent.Kind)
	assert.Equal(t, KindCancelAction, classify(t, "no")[0].Intent.Kind)
	assert.Equal(t, KindCancelAction, classify(t, "never mind, forget it")[0].Intent.Kind)

	// Short confirmations are not honored inside long sentences.
	scores := classify(t, "yes I was wondering what the price is today")
	assert.NotEqual(t, KindConfirmAction, scores[0].Intent.Kind)
}

func TestClassifyFuzzySingleToken(t *testing.T) {
	scores := classify(t, "balanec")
	assert.Equal(t, KindBalance, scores[0].Intent.Kind)
	assert.InDelta(t, 0.70, scores[0].Confidence, 0.001)
}

func TestClassifyUnknownFallback(t *testing.T) {
	scores := classify(t, "what is the weather like today")
	require.Len(t, scores, 1)
	assert.Equal(t, KindUnknown, scores[0].Intent.Kind)
	assert.Less(t, scores[0].Confidence, MinActionable)
	assert.Equal(t, "what is the weather like today", scores[0].Intent.Raw)
}

func TestClassifyHistoryCount(t *testing.T) {
	scores := classify(t, "show my last 7 transactions")
	require.Equal(t, KindHistory, scores[0].Intent.Kind)
	assert.Equal(t, 7, scores[0].Intent.Count)

	scores = classify(t, "show my transactions")
	require.Equal(t, KindHistory, scores[0].Intent.Kind)
	assert.Equal(t, DefaultHistoryCount, scores[0].Intent.Count)
}

func TestClassifyExplainTopic(t *testing.T) {
	scores := classify(t, "what is a utxo?")
	require.Equal(t, KindExplain, scores[0].Intent.Kind)
	assert.Equal(t, "utxo", scores[0].Intent.Topic)
}

func TestClassifyTransactionDetailByRawTxID(t *testing.T) {
	txid := "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	scores := classify(t, txid)
	require.Equal(t, KindTransactionDetail, scores[0].Intent.Kind)
	assert.Equal(t, txid, scores[0].Intent.TxID)
}

func TestKindRoundTrip(t *testing.T) {
	for k, name := range kindNames {
		assert.Equal(t, k, KindFromString(name))
	}
	assert.Equal(t, KindUnknown, KindFromString("not-a-kind"))
}
