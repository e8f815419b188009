// Package engine orchestrates the message pipeline: secret guardrail,
// entity extraction, reference resolution, compound-request segmentation,
// intent classification, the send-flow state machine, and reply dispatch.
// One Engine serves every conversation; per-conversation state lives in
// sessions keyed by (room, sender).
package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seijun/satomi/common/trace"
	"github.com/seijun/satomi/internal/satomi/extract"
	"github.com/seijun/satomi/internal/satomi/flow"
	"github.com/seijun/satomi/internal/satomi/guard"
	"github.com/seijun/satomi/internal/satomi/intent"
	"github.com/seijun/satomi/internal/satomi/memory"
	"github.com/seijun/satomi/internal/satomi/refer"
	"github.com/seijun/satomi/internal/satomi/reply"
	"github.com/seijun/satomi/internal/satomi/segment"
	"github.com/seijun/satomi/internal/satomi/store"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

// replayLimit bounds how many stored turns are replayed to rebuild a
// session's short-term memory after a restart.
const replayLimit = 50

// Deps are the collaborators the engine drives. Store may be nil for a
// purely in-memory engine (tests, one-off sessions).
type Deps struct {
	Snapshots   wallet.SnapshotSource
	Broadcaster wallet.Broadcaster
	Prices      wallet.PriceSource
	Fees        wallet.FeeSource
	Store       *store.Store
	Responder   *reply.Responder
	Logger      *slog.Logger
}

// Engine is the conversational command engine.
type Engine struct {
	deps Deps
	cls  *intent.Classifier
	seg  *segment.Segmenter
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// session is one (room, sender) conversation. The id is regenerated per
// process; the store's conversation row is the durable identity.
type session struct {
	mu            sync.Mutex
	id            string
	convID        int64
	mem           *memory.Memory
	flow          *flow.Controller
	balanceHidden bool
}

// New returns an Engine over deps.
func New(deps Deps) *Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	cls := intent.NewClassifier()
	return &Engine{
		deps:     deps,
		cls:      cls,
		seg:      segment.NewSegmenter(cls),
		log:      deps.Logger,
		sessions: make(map[string]*session),
	}
}

// HandleMessage processes one user message and returns the reply text.
// Messages within a conversation are handled strictly in order.
func (e *Engine) HandleMessage(ctx context.Context, roomID, senderID, text string) (string, error) {
	traceID := trace.GenerateID()
	ctx = trace.WithTraceID(ctx, traceID)
	log := e.log.With("trace_id", traceID, "room", roomID, "sender", senderID)

	// Secrets short-circuit everything: no parsing, no memory, no storage.
	if guard.ContainsSecret(text) {
		log.Warn("message refused: contains wallet secret material")
		return e.deps.Responder.Render("seed_phrase_warning", nil), nil
	}

	sess, err := e.sessionFor(roomID, senderID)
	if err != nil {
		return "", err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	log = log.With("session_id", sess.id)

	segments := e.seg.SplitIfCompound(text)
	if len(segments) == 0 {
		return e.deps.Responder.Render("unknown", nil), nil
	}

	var replies []string
	var shownAll memory.ShownData
	for _, seg := range segments {
		out, shown := e.handleSegment(ctx, log, sess, seg)
		if out != "" {
			replies = append(replies, out)
		}
		mergeShown(&shownAll, shown)
	}

	answer := strings.Join(replies, "\n\n")
	sess.mem.RecordAIResponse(answer, shownAll)
	e.persistTurn(sess, "assistant", answer, "", 0)
	return answer, nil
}

// handleSegment runs one segment through extraction, reference resolution,
// classification, and the flow controller, then dispatches.
func (e *Engine) handleSegment(ctx context.Context, log *slog.Logger, sess *session, text string) (string, memory.ShownData) {
	ents := extract.Extract(text)
	ents, res := refer.Enrich(text, ents, sess.mem)

	scores := e.cls.ScoredMatch(text, ents)

	// "Do it again" with no stronger reading repeats the last substantive
	// request.
	if res.RepeatIntent != nil && scores[0].Confidence < intent.MinActionable {
		scores = append([]intent.Score{{
			Intent:     *res.RepeatIntent,
			Confidence: intent.MinActionable,
			Provenance: "reference:again",
		}}, scores...)
	}

	top := scores[0]
	log.Info("classified",
		"intent", top.Intent.Kind.String(),
		"confidence", top.Confidence,
		"provenance", top.Provenance,
		"flow_state", sess.flow.State().String())

	sess.mem.RecordUserMessage(text, &top.Intent, ents)
	e.persistTurn(sess, "user", text, top.Intent.Kind.String(), top.Confidence)

	in := e.sendInput(ctx, ents)
	fees := e.feeEstimates(ctx)
	decision := sess.flow.Step(scores, in, fees)

	switch decision.Kind {
	case flow.ActionHandleNormally:
		return e.dispatch(ctx, sess, top, ents)

	case flow.ActionAsk:
		return e.askFor(decision), memory.ShownData{}

	case flow.ActionConfirmPrompt:
		return e.deps.Responder.Render("confirm_prompt", draftData(decision.Draft)), memory.ShownData{}

	case flow.ActionModified:
		return e.deps.Responder.Render("modified", draftData(decision.Draft)), memory.ShownData{}

	case flow.ActionBroadcast:
		return e.broadcast(ctx, log, sess, decision.Draft)

	case flow.ActionCancelled:
		return e.deps.Responder.Render("cancelled", nil), memory.ShownData{}

	case flow.ActionPauseAndHandle:
		answer, shown := e.dispatch(ctx, sess, top, ents)
		resume := e.deps.Responder.Render("resume_flow", map[string]string{
			"prompt": e.askFor(decision),
		})
		return answer + "\n\n" + resume, shown

	case flow.ActionRePrompt:
		return e.reprompt(sess, decision), memory.ShownData{}

	case flow.ActionWait:
		return e.deps.Responder.Render("processing", nil), memory.ShownData{}

	case flow.ActionReportError:
		return e.deps.Responder.Render("send_error", map[string]string{
			"reason": decision.Reason,
		}), memory.ShownData{}
	}

	return e.deps.Responder.Render("unknown", nil), memory.ShownData{}
}

// broadcast performs the one signing/broadcast call for a confirmed draft.
func (e *Engine) broadcast(ctx context.Context, log *slog.Logger, sess *session, draft *flow.Draft) (string, memory.ShownData) {
	txid, err := e.deps.Broadcaster.SignAndBroadcast(ctx, wallet.SendRequest{
		Address:      draft.Address,
		AmountSats:   draft.AmountSats,
		FeeRateSatVB: draft.FeeRateSatVB,
	})
	outcome := sess.flow.FinishBroadcast(txid, err)
	if err != nil {
		log.Error("broadcast failed", "err", err)
		return e.deps.Responder.Render("send_error", map[string]string{
			"reason": outcome.Reason,
		}), memory.ShownData{}
	}

	log.Info("broadcast succeeded", "txid", txid, "amount_sats", draft.AmountSats)
	sent := wallet.Tx{
		TxID:       txid,
		AmountSats: -draft.AmountSats,
		Address:    draft.Address,
		Timestamp:  time.Now(),
	}
	return e.deps.Responder.Render("send_success", map[string]string{
		"amount":  formatBTC(draft.AmountSats),
		"address": draft.Address,
		"txid":    txid,
	}), memory.ShownData{SentTx: &sent}
}

func (e *Engine) askFor(d flow.Decision) string {
	switch d.Missing {
	case flow.FieldAmount:
		addr := ""
		if d.Draft != nil {
			addr = d.Draft.Address
		}
		return e.deps.Responder.Render("ask_amount", map[string]string{"address": addr})
	case flow.FieldConfirmation:
		return e.deps.Responder.Render("reprompt_confirmation", draftData(d.Draft))
	default:
		return e.deps.Responder.Render("ask_address", nil)
	}
}

// reprompt re-asks for the specific field the flow is waiting on. Mid-send,
// an unintelligible message is treated as a bad value for that field, never
// as a generic "I don't understand".
func (e *Engine) reprompt(sess *session, d flow.Decision) string {
	switch d.Missing {
	case flow.FieldAmount:
		return e.deps.Responder.Render("reprompt_amount", nil)
	case flow.FieldConfirmation:
		return e.deps.Responder.Render("reprompt_confirmation", draftData(sess.flow.PendingDraft()))
	default:
		return e.deps.Responder.Render("reprompt_address", nil)
	}
}

// sendInput builds the flow input from extracted entities, resolving
// sentinel and fiat amounts to satoshis against live state.
func (e *Engine) sendInput(ctx context.Context, ents extract.Entities) flow.SendInput {
	in := flow.SendInput{
		Address:  ents.Address,
		FeeLevel: ents.FeeLevel,
		FeeRate:  ents.FeeRate,
	}
	if sats, ok := e.resolveSats(ctx, ents); ok {
		in.HasAmount = true
		in.AmountSats = sats
	}
	return in
}

// resolveSats turns an extracted amount into satoshis: sentinels against the
// balance, fiat against the live price, and plain BTC/sats by scale.
func (e *Engine) resolveSats(ctx context.Context, ents extract.Entities) (int64, bool) {
	if ents.Amount == nil {
		return 0, false
	}

	switch {
	case ents.IsAll():
		snap, err := e.deps.Snapshots.Snapshot(ctx)
		if err != nil {
			return 0, false
		}
		return snap.BalanceSats, true
	case ents.IsHalf():
		snap, err := e.deps.Snapshots.Snapshot(ctx)
		if err != nil {
			return 0, false
		}
		return snap.BalanceSats / 2, true
	}

	if ents.Currency != "" && ents.Unit == extract.UnitNone {
		price, err := e.deps.Prices.Price(ctx, ents.Currency)
		if err != nil || price.IsZero() {
			return 0, false
		}
		btc := ents.Amount.Div(price)
		return wallet.BTCToSats(btc), true
	}

	if ents.Unit == extract.UnitSats {
		return ents.Amount.IntPart(), true
	}
	return wallet.BTCToSats(*ents.Amount), true
}

// feeEstimates fetches live estimates, degrading to zero values when the
// collaborator is unavailable; the flow then falls back to a floor rate.
func (e *Engine) feeEstimates(ctx context.Context) wallet.FeeEstimates {
	est, err := e.deps.Fees.Estimates(ctx)
	if err != nil {
		return wallet.FeeEstimates{}
	}
	return est
}

// sessionFor returns the session for (roomID, senderID), creating it and
// replaying stored history on first contact.
func (e *Engine) sessionFor(roomID, senderID string) (*session, error) {
	key := roomID + "\x00" + senderID

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[key]; ok {
		return s, nil
	}

	s := &session{id: uuid.New().String(), mem: memory.New(), flow: flow.NewController()}
	if e.deps.Store != nil {
		convID, err := e.deps.Store.EnsureConversation(roomID, senderID)
		if err != nil {
			return nil, err
		}
		s.convID = convID
		e.replay(s)
	}
	e.sessions[key] = s
	return s, nil
}

// replay rebuilds short-term memory by running stored turns back through
// extraction and classification. The raw text is the source of truth; flow
// state is deliberately not resurrected, so a pending send does not survive
// a restart.
func (e *Engine) replay(s *session) {
	turns, err := e.deps.Store.RecentTurns(s.convID, replayLimit)
	if err != nil {
		e.log.Warn("history replay failed", "err", err)
		return
	}
	for _, t := range turns {
		if t.Role == "user" {
			ents := extract.Extract(t.Body)
			scores := e.cls.ScoredMatch(t.Body, ents)
			s.mem.RecordUserMessage(t.Body, &scores[0].Intent, ents)
		} else {
			s.mem.RecordAIResponse(t.Body, memory.ShownData{})
		}
	}
	if len(turns) > 0 {
		e.log.Info("replayed conversation history", "turns", len(turns))
	}
}

func (e *Engine) persistTurn(sess *session, role, body, intentName string, confidence float64) {
	if e.deps.Store == nil || sess.convID == 0 {
		return
	}
	if err := e.deps.Store.AppendTurn(sess.convID, role, body, intentName, confidence); err != nil {
		e.log.Warn("failed to persist turn", "err", err)
	}
}

// ResetConversation forgets a conversation's memory, flow, and stored
// history.
func (e *Engine) ResetConversation(roomID, senderID string) error {
	key := roomID + "\x00" + senderID

	e.mu.Lock()
	if s, ok := e.sessions[key]; ok {
		s.mu.Lock()
		s.mem.Reset()
		s.flow.Reset()
		s.mu.Unlock()
	}
	delete(e.sessions, key)
	e.mu.Unlock()

	if e.deps.Store != nil {
		return e.deps.Store.DeleteConversation(roomID, senderID)
	}
	return nil
}

func mergeShown(dst *memory.ShownData, src memory.ShownData) {
	if src.BalanceSats != nil {
		dst.BalanceSats = src.BalanceSats
	}
	if src.FiatBalance != nil {
		dst.FiatBalance = src.FiatBalance
		dst.FiatCurrency = src.FiatCurrency
	}
	if len(src.Transactions) > 0 {
		dst.Transactions = src.Transactions
	}
	if src.FeeEstimates != nil {
		dst.FeeEstimates = src.FeeEstimates
	}
	if src.ReceiveAddress != "" {
		dst.ReceiveAddress = src.ReceiveAddress
	}
	if src.SentTx != nil {
		dst.SentTx = src.SentTx
	}
}

// draftData flattens a draft into reply placeholders.
func draftData(d *flow.Draft) map[string]string {
	if d == nil {
		return nil
	}
	return map[string]string{
		"amount":    formatBTC(d.AmountSats),
		"address":   d.Address,
		"fee_level": string(d.FeeLevel),
		"fee":       decimal.NewFromInt(d.FeeSats).String(),
		"eta":       formatETA(d.ETA),
	}
}

func formatBTC(sats int64) string {
	return wallet.SatsToBTC(sats).String()
}

func formatETA(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}
	return d.String()
}
