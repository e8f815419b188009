// Package flow implements the multi-turn conversation state machine for
// operations gathered across several messages — principally sending funds.
// The controller owns the pending draft exclusively and guarantees that a
// pending money movement is never silently lost, duplicated, or misread:
// every transition is driven through a single table in Step, and a
// re-entrancy guard ensures a duplicate confirmation can never trigger a
// second broadcast for the same draft.
package flow

import (
	"fmt"
	"sync"
	"time"

	"github.com/seijun/satomi/internal/satomi/extract"
	"github.com/seijun/satomi/internal/satomi/intent"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

// State is the current position in the send flow. Exactly one flow is
// active per conversation at any time.
type State int

const (
	StateIdle State = iota
	StateAwaitingAddress
	StateAwaitingAmount
	StateAwaitingConfirmation
	StateProcessing
	StateCompleted
	StateError
)

var stateNames = map[State]string{
	StateIdle:                 "idle",
	StateAwaitingAddress:      "awaiting_address",
	StateAwaitingAmount:       "awaiting_amount",
	StateAwaitingConfirmation: "awaiting_confirmation",
	StateProcessing:           "processing",
	StateCompleted:            "completed",
	StateError:                "error",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Field names the piece of information the flow is waiting on.
type Field int

const (
	FieldNone Field = iota
	FieldAddress
	FieldAmount
	FieldConfirmation
)

func (f Field) String() string {
	switch f {
	case FieldAddress:
		return "address"
	case FieldAmount:
		return "amount"
	case FieldConfirmation:
		return "confirmation"
	default:
		return "none"
	}
}

// Draft is the in-memory, not-yet-broadcast description of a send being
// assembled across turns. It exists only from awaitingConfirmation onward
// and is owned exclusively by the Controller; callers receive copies.
type Draft struct {
	Address      string
	AmountSats   int64
	FeeLevel     extract.FeeLevel
	FeeRateSatVB float64
	FeeSats      int64
	ETA          time.Duration
}

// nominalVsize is the 1-input-2-output estimate used for the fee preview
// shown at confirmation; the real fee is set by the signer.
const nominalVsize = 141

// ActionKind is the single action the controller decides on per message.
type ActionKind int

const (
	// ActionHandleNormally — stateless command, no flow involvement.
	ActionHandleNormally ActionKind = iota
	// ActionAsk — the flow advanced and now needs the named field.
	ActionAsk
	// ActionConfirmPrompt — draft complete; show it and ask for confirmation.
	ActionConfirmPrompt
	// ActionBroadcast — confirmation accepted; caller must broadcast the
	// returned draft exactly once and then call FinishBroadcast.
	ActionBroadcast
	// ActionCancelled — flow aborted, draft discarded.
	ActionCancelled
	// ActionPauseAndHandle — answer the side question; flow state preserved.
	ActionPauseAndHandle
	// ActionModified — pending draft adjusted; re-show confirmation.
	ActionModified
	// ActionRePrompt — the message did not satisfy the requested field;
	// ask again for the same field.
	ActionRePrompt
	// ActionWait — a broadcast is in flight; nothing further to do.
	ActionWait
	// ActionReportError — flow is in the error state; surface the reason.
	ActionReportError
)

// Decision is the controller's single output per message.
type Decision struct {
	Kind    ActionKind
	State   State
	Missing Field
	Draft   *Draft // copy; present for ask/confirm/broadcast/modify
	Reason  string // error reason, verbatim from the collaborator
}

// SendInput carries the send-relevant fields of one message after entity
// extraction and reference resolution, with amounts already resolved to
// satoshis (sentinels and fiat conversion are the orchestrator's job).
type SendInput struct {
	HasAmount  bool
	AmountSats int64
	Address    string
	FeeLevel   extract.FeeLevel
	FeeRate    float64 // sat/vB when FeeLevel == FeeCustom
}

// Controller drives one conversation's flow. Methods are safe for
// concurrent use, though the engine serializes messages per conversation.
type Controller struct {
	mu           sync.Mutex
	state        State
	draft        *Draft
	reason       string
	broadcasting bool
}

// NewController returns a controller in the idle state.
func NewController() *Controller {
	return &Controller{state: StateIdle}
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingDraft returns a copy of the pending draft, if any.
func (c *Controller) PendingDraft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draftCopy()
}

// Reset returns the controller to idle and discards any draft.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.draft = nil
	c.reason = ""
	c.broadcasting = false
}

// Step applies the transition table: given the ranked classification of the
// current message, its send-relevant input, and the live fee estimates, it
// produces exactly one action and the state after it.
func (c *Controller) Step(scores []intent.Score, in SendInput, fees wallet.FeeEstimates) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	top := scores[0]
	cancel := scoreOf(scores, intent.KindCancelAction)
	confirm := scoreOf(scores, intent.KindConfirmAction)

	switch c.state {
	case StateIdle, StateCompleted:
		if top.Intent.Kind == intent.KindSend {
			return c.startSend(in, fees)
		}
		// A stray yes/no with nothing pending is an ordinary message.
		return Decision{Kind: ActionHandleNormally, State: c.state}

	case StateAwaitingAddress:
		if cancel != nil {
			return c.cancelFlow()
		}
		if in.Address != "" {
			c.mergeInput(in, fees)
			return c.advance(fees)
		}
		if isSideQuestion(top) {
			return Decision{Kind: ActionPauseAndHandle, State: c.state, Missing: FieldAddress}
		}
		// Anything else mid-flow means "not a valid address", never
		// "I don't understand".
		return Decision{Kind: ActionRePrompt, State: c.state, Missing: FieldAddress}

	case StateAwaitingAmount:
		if cancel != nil {
			return c.cancelFlow()
		}
		if in.HasAmount {
			c.mergeInput(in, fees)
			return c.advance(fees)
		}
		if isSideQuestion(top) {
			return Decision{Kind: ActionPauseAndHandle, State: c.state, Missing: FieldAmount}
		}
		return Decision{Kind: ActionRePrompt, State: c.state, Missing: FieldAmount}

	case StateAwaitingConfirmation:
		if cancel != nil {
			return c.cancelFlow()
		}
		if confirm != nil {
			return c.beginBroadcast()
		}
		// In-flight modification: a new amount or fee level reshapes the
		// draft and re-enters the same state.
		if in.HasAmount || in.FeeLevel != extract.FeeNone {
			c.mergeInput(in, fees)
			return Decision{Kind: ActionModified, State: c.state, Missing: FieldConfirmation, Draft: c.draftCopy()}
		}
		if isSideQuestion(top) {
			return Decision{Kind: ActionPauseAndHandle, State: c.state, Missing: FieldConfirmation}
		}
		return Decision{Kind: ActionRePrompt, State: c.state, Missing: FieldConfirmation}

	case StateProcessing:
		// Cancellation is honored only up to the point the broadcast was
		// submitted; from here the only exits are success and failure.
		return Decision{Kind: ActionWait, State: c.state}

	case StateError:
		if cancel != nil {
			return c.cancelFlow()
		}
		if top.Intent.Kind == intent.KindSend {
			// A fresh send supersedes the failed one.
			c.draft = nil
			c.reason = ""
			return c.startSend(in, fees)
		}
		return Decision{Kind: ActionReportError, State: c.state, Reason: c.reason}
	}

	return Decision{Kind: ActionHandleNormally, State: c.state}
}

// FinishBroadcast records the outcome of the broadcast the caller performed
// for an ActionBroadcast decision. Success completes the flow; failure
// moves it to the error state with the collaborator's reason verbatim.
func (c *Controller) FinishBroadcast(txid string, err error) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.broadcasting = false
	if err != nil {
		c.state = StateError
		c.reason = err.Error()
		c.draft = nil
		return Decision{Kind: ActionReportError, State: c.state, Reason: c.reason}
	}
	c.state = StateCompleted
	d := c.draftCopy()
	c.draft = nil
	return Decision{Kind: ActionHandleNormally, State: c.state, Draft: d}
}

// --- internals (mu held) ---------------------------------------------------

func (c *Controller) startSend(in SendInput, fees wallet.FeeEstimates) Decision {
	c.draft = &Draft{}
	c.reason = ""
	c.mergeInput(in, fees)
	return c.advance(fees)
}

// advance moves to the first state whose required field is absent; the
// controller never advances past a missing field.
func (c *Controller) advance(fees wallet.FeeEstimates) Decision {
	switch {
	case c.draft.Address == "":
		c.state = StateAwaitingAddress
		return Decision{Kind: ActionAsk, State: c.state, Missing: FieldAddress, Draft: c.draftCopy()}
	case c.draft.AmountSats == 0:
		c.state = StateAwaitingAmount
		return Decision{Kind: ActionAsk, State: c.state, Missing: FieldAmount, Draft: c.draftCopy()}
	default:
		c.priceDraft(fees)
		c.state = StateAwaitingConfirmation
		return Decision{Kind: ActionConfirmPrompt, State: c.state, Missing: FieldConfirmation, Draft: c.draftCopy()}
	}
}

func (c *Controller) mergeInput(in SendInput, fees wallet.FeeEstimates) {
	if c.draft == nil {
		c.draft = &Draft{}
	}
	if in.Address != "" {
		c.draft.Address = in.Address
	}
	if in.HasAmount {
		c.draft.AmountSats = in.AmountSats
	}
	if in.FeeLevel != extract.FeeNone {
		c.draft.FeeLevel = in.FeeLevel
		c.draft.FeeRateSatVB = in.FeeRate
	}
	c.priceDraft(fees)
}

// priceDraft fills the fee preview and confirmation-time estimate from the
// current fee level and live estimates.
func (c *Controller) priceDraft(fees wallet.FeeEstimates) {
	if c.draft == nil {
		return
	}
	if c.draft.FeeLevel == extract.FeeNone {
		c.draft.FeeLevel = extract.FeeMedium
	}
	if c.draft.FeeLevel != extract.FeeCustom {
		c.draft.FeeRateSatVB = fees.Rate(string(c.draft.FeeLevel))
	}
	if c.draft.FeeRateSatVB <= 0 {
		c.draft.FeeRateSatVB = 1
	}
	c.draft.FeeSats = int64(c.draft.FeeRateSatVB * nominalVsize)
	c.draft.ETA = etaFor(c.draft.FeeRateSatVB, fees)
}

func (c *Controller) beginBroadcast() Decision {
	// Re-entrancy guard: only the first confirmation moves the draft into
	// processing; a duplicate signal finds the state already advanced.
	if c.broadcasting || c.state == StateProcessing {
		return Decision{Kind: ActionWait, State: StateProcessing}
	}
	c.broadcasting = true
	c.state = StateProcessing
	return Decision{Kind: ActionBroadcast, State: c.state, Draft: c.draftCopy()}
}

func (c *Controller) cancelFlow() Decision {
	c.state = StateIdle
	c.draft = nil
	c.reason = ""
	c.broadcasting = false
	return Decision{Kind: ActionCancelled, State: c.state}
}

func (c *Controller) draftCopy() *Draft {
	if c.draft == nil {
		return nil
	}
	d := *c.draft
	return &d
}

// scoreOf finds kind anywhere in the ranked list at usable confidence, so a
// "send it" that also matched as send still counts as a confirmation while
// one is pending.
func scoreOf(scores []intent.Score, kind intent.Kind) *intent.Score {
	for i := range scores {
		if scores[i].Intent.Kind == kind && scores[i].Confidence >= intent.MinActionable {
			return &scores[i]
		}
	}
	return nil
}

// isSideQuestion reports whether the top intent is an informational query
// worth answering without abandoning the flow.
func isSideQuestion(top intent.Score) bool {
	if top.Confidence < 0.85 {
		return false
	}
	switch top.Intent.Kind {
	case intent.KindBalance, intent.KindPrice, intent.KindFeeEstimate,
		intent.KindConvertAmount, intent.KindNetworkStatus, intent.KindHelp,
		intent.KindExplain, intent.KindWalletHealth:
		return true
	}
	return false
}

// etaFor estimates confirmation time by comparing the chosen rate with the
// live tiers.
func etaFor(rate float64, fees wallet.FeeEstimates) time.Duration {
	switch {
	case fees.FastSatVB > 0 && rate >= fees.FastSatVB:
		return 10 * time.Minute
	case fees.MediumSatVB > 0 && rate >= fees.MediumSatVB:
		return 30 * time.Minute
	default:
		return 60 * time.Minute
	}
}
