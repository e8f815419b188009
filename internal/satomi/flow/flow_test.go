package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seijun/satomi/internal/satomi/extract"
	"github.com/seijun/satomi/internal/satomi/intent"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

const testAddr = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"

var testFees = wallet.FeeEstimates{SlowSatVB: 5, MediumSatVB: 10, FastSatVB: 20}

func scored(kind intent.Kind, conf float64) []intent.Score {
	return []intent.Score{{Intent: intent.Intent{Kind: kind}, Confidence: conf}}
}

func TestStepIgnoresNonSendWhenIdle(t *testing.T) {
	c := NewController()
	d := c.Step(scored(intent.KindBalance, 0.95), SendInput{}, testFees)
	assert.Equal(t, ActionHandleNormally, d.Kind)
	assert.Equal(t, StateIdle, c.State())
}

func TestHappyPathFieldByField(t *testing.T) {
	c := NewController()

	// "I want to send some bitcoin" — nothing but the intent.
	d := c.Step(scored(intent.KindSend, 0.85), SendInput{}, testFees)
	assert.Equal(t, ActionAsk, d.Kind)
	assert.Equal(t, FieldAddress, d.Missing)
	assert.Equal(t, StateAwaitingAddress, c.State())

	// The address arrives.
	d = c.Step(scored(intent.KindUnknown, 0.30), SendInput{Address: testAddr}, testFees)
	assert.Equal(t, ActionAsk, d.Kind)
	assert.Equal(t, FieldAmount, d.Missing)
	assert.Equal(t, StateAwaitingAmount, c.State())

	// The amount arrives; the draft is priced and shown for confirmation.
	d = c.Step(scored(intent.KindUnknown, 0.30), SendInput{HasAmount: true, AmountSats: 1_000_000}, testFees)
	require.Equal(t, ActionConfirmPrompt, d.Kind)
	require.NotNil(t, d.Draft)
	assert.Equal(t, testAddr, d.Draft.Address)
	assert.Equal(t, int64(1_000_000), d.Draft.AmountSats)
	assert.Equal(t, extract.FeeMedium, d.Draft.FeeLevel)
	assert.Equal(t, 10.0, d.Draft.FeeRateSatVB)
	assert.Equal(t, int64(10*nominalVsize), d.Draft.FeeSats)
	assert.Equal(t, 30*time.Minute, d.Draft.ETA)

	// Confirmation moves to processing and hands out the draft once.
	d = c.Step(scored(intent.KindConfirmAction, 0.95), SendInput{}, testFees)
	require.Equal(t, ActionBroadcast, d.Kind)
	require.NotNil(t, d.Draft)
	assert.Equal(t, StateProcessing, c.State())

	done := c.FinishBroadcast("txid", nil)
	require.NotNil(t, done.Draft)
	assert.Equal(t, StateCompleted, c.State())
	assert.Nil(t, c.PendingDraft())
}

func TestSingleMessageSendGoesStraightToConfirmation(t *testing.T) {
	c := NewController()
	in := SendInput{HasAmount: true, AmountSats: 50_000, Address: testAddr, FeeLevel: extract.FeeFast}
	d := c.Step(scored(intent.KindSend, 0.95), in, testFees)
	require.Equal(t, ActionConfirmPrompt, d.Kind)
	assert.Equal(t, extract.FeeFast, d.Draft.FeeLevel)
	assert.Equal(t, 20.0, d.Draft.FeeRateSatVB)
	assert.Equal(t, 10*time.Minute, d.Draft.ETA)
}

func TestDuplicateConfirmBroadcastsOnce(t *testing.T) {
	c := NewController()
	in := SendInput{HasAmount: true, AmountSats: 50_000, Address: testAddr}
	c.Step(scored(intent.KindSend, 0.95), in, testFees)

	first := c.Step(scored(intent.KindConfirmAction, 0.95), SendInput{}, testFees)
	second := c.Step(scored(intent.KindConfirmAction, 0.95), SendInput{}, testFees)

	assert.Equal(t, ActionBroadcast, first.Kind)
	assert.Equal(t, ActionWait, second.Kind)
	assert.Equal(t, StateProcessing, c.State())
}

func TestSendItCountsAsConfirmation(t *testing.T) {
	c := NewController()
	in := SendInput{HasAmount: true, AmountSats: 50_000, Address: testAddr}
	c.Step(scored(intent.KindSend, 0.95), in, testFees)

	// "send it" classifies as both confirm and send; confirm must win while
	// a draft is pending even when send ranks first.
	scores := []intent.Score{
		{Intent: intent.Intent{Kind: intent.KindSend}, Confidence: 0.95},
		{Intent: intent.Intent{Kind: intent.KindConfirmAction}, Confidence: 0.85},
	}
	d := c.Step(scores, SendInput{}, testFees)
	assert.Equal(t, ActionBroadcast, d.Kind)
}

func TestCancelFromEachGatheringState(t *testing.T) {
	cancel := scored(intent.KindCancelAction, 0.95)

	// Awaiting address.
	c := NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{}, testFees)
	d := c.Step(cancel, SendInput{}, testFees)
	assert.Equal(t, ActionCancelled, d.Kind)
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.PendingDraft())

	// Awaiting amount.
	c = NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{Address: testAddr}, testFees)
	d = c.Step(cancel, SendInput{}, testFees)
	assert.Equal(t, ActionCancelled, d.Kind)

	// Awaiting confirmation.
	c = NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{HasAmount: true, AmountSats: 1, Address: testAddr}, testFees)
	d = c.Step(cancel, SendInput{}, testFees)
	assert.Equal(t, ActionCancelled, d.Kind)
}

func TestCancelRefusedWhileProcessing(t *testing.T) {
	c := NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{HasAmount: true, AmountSats: 1, Address: testAddr}, testFees)
	c.Step(scored(intent.KindConfirmAction, 0.95), SendInput{}, testFees)

	d := c.Step(scored(intent.KindCancelAction, 0.95), SendInput{}, testFees)
	assert.Equal(t, ActionWait, d.Kind)
	assert.Equal(t, StateProcessing, c.State())
}

func TestModifyWhileAwaitingConfirmation(t *testing.T) {
	c := NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{HasAmount: true, AmountSats: 50_000, Address: testAddr}, testFees)

	// "actually make it 60000 sats"
	d := c.Step(scored(intent.KindUnknown, 0.30), SendInput{HasAmount: true, AmountSats: 60_000}, testFees)
	require.Equal(t, ActionModified, d.Kind)
	assert.Equal(t, int64(60_000), d.Draft.AmountSats)
	assert.Equal(t, testAddr, d.Draft.Address)
	assert.Equal(t, StateAwaitingConfirmation, c.State())

	// "use a slow fee" re-prices without losing the rest.
	d = c.Step(scored(intent.KindUnknown, 0.30), SendInput{FeeLevel: extract.FeeSlow}, testFees)
	require.Equal(t, ActionModified, d.Kind)
	assert.Equal(t, extract.FeeSlow, d.Draft.FeeLevel)
	assert.Equal(t, 5.0, d.Draft.FeeRateSatVB)
	assert.Equal(t, int64(60_000), d.Draft.AmountSats)
}

func TestSideQuestionPausesFlow(t *testing.T) {
	c := NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{}, testFees)

	d := c.Step(scored(intent.KindFeeEstimate, 0.95), SendInput{}, testFees)
	assert.Equal(t, ActionPauseAndHandle, d.Kind)
	assert.Equal(t, FieldAddress, d.Missing)
	assert.Equal(t, StateAwaitingAddress, c.State())
}

func TestUnrelatedMessageMidFlowRePrompts(t *testing.T) {
	c := NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{}, testFees)

	d := c.Step(scored(intent.KindUnknown, 0.30), SendInput{}, testFees)
	assert.Equal(t, ActionRePrompt, d.Kind)
	assert.Equal(t, FieldAddress, d.Missing)
}

func TestBroadcastFailureEntersErrorState(t *testing.T) {
	c := NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{HasAmount: true, AmountSats: 1, Address: testAddr}, testFees)
	c.Step(scored(intent.KindConfirmAction, 0.95), SendInput{}, testFees)

	d := c.FinishBroadcast("", errors.New("insufficient funds"))
	assert.Equal(t, ActionReportError, d.Kind)
	assert.Equal(t, "insufficient funds", d.Reason)
	assert.Equal(t, StateError, c.State())
	assert.Nil(t, c.PendingDraft())

	// The error is repeated until the user moves on.
	d = c.Step(scored(intent.KindUnknown, 0.30), SendInput{}, testFees)
	assert.Equal(t, ActionReportError, d.Kind)
	assert.Equal(t, "insufficient funds", d.Reason)

	// A fresh send supersedes the failure.
	d = c.Step(scored(intent.KindSend, 0.95), SendInput{HasAmount: true, AmountSats: 1, Address: testAddr}, testFees)
	assert.Equal(t, ActionConfirmPrompt, d.Kind)
	assert.Empty(t, d.Reason)

	// Or a cancel clears it.
	c.Reset()
	assert.Equal(t, StateIdle, c.State())
}

func TestNewSendAfterCompletion(t *testing.T) {
	c := NewController()
	c.Step(scored(intent.KindSend, 0.95), SendInput{HasAmount: true, AmountSats: 1, Address: testAddr}, testFees)
	c.Step(scored(intent.KindConfirmAction, 0.95), SendInput{}, testFees)
	c.FinishBroadcast("txid", nil)

	// A stray confirm after completion is an ordinary message.
	d := c.Step(scored(intent.KindConfirmAction, 0.95), SendInput{}, testFees)
	assert.Equal(t, ActionHandleNormally, d.Kind)

	d = c.Step(scored(intent.KindSend, 0.95), SendInput{}, testFees)
	assert.Equal(t, ActionAsk, d.Kind)
	assert.Equal(t, FieldAddress, d.Missing)
}

func TestZeroFeeEstimatesFloorToOne(t *testing.T) {
	c := NewController()
	d := c.Step(scored(intent.KindSend, 0.95),
		SendInput{HasAmount: true, AmountSats: 1, Address: testAddr}, wallet.FeeEstimates{})
	require.Equal(t, ActionConfirmPrompt, d.Kind)
	assert.Equal(t, 1.0, d.Draft.FeeRateSatVB)
	assert.Equal(t, int64(nominalVsize), d.Draft.FeeSats)
	assert.Equal(t, 60*time.Minute, d.Draft.ETA)
}
