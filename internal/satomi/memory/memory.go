// Package memory keeps the short-term conversational context for one
// conversation: the recent turns, the most recently mentioned entities, and
// what the assistant last showed. Reference resolution reads these
// projections to ground "that address", "the second one", and "do it again".
//
// Updates are strictly additive per message: a new value overwrites the old
// one, but the absence of a value in a message never clears what was
// remembered before.
package memory

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/seijun/satomi/internal/satomi/extract"
	"github.com/seijun/satomi/internal/satomi/intent"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

// maxTurns bounds the rolling transcript kept in memory; the store keeps the
// durable full history.
const maxTurns = 50

// Role tags a turn's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the rolling transcript.
type Turn struct {
	Role     Role
	Text     string
	Intent   *intent.Intent
	Entities extract.Entities
	At       time.Time
}

// ShownData describes what an assistant reply surfaced, so follow-ups like
// "the second one" or "that address" can refer back to it.
type ShownData struct {
	BalanceSats    *int64
	FiatBalance    *decimal.Decimal
	FiatCurrency   string
	Transactions   []wallet.Tx
	FeeEstimates   *wallet.FeeEstimates
	ReceiveAddress string
	SentTx         *wallet.Tx
}

// Memory is one conversation's short-term context. Safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	turns []Turn

	// Most recently mentioned entities, user or assistant.
	lastAddress  string
	lastAmount   *decimal.Decimal
	lastUnit     extract.Unit
	lastTxID     string
	lastFeeLevel extract.FeeLevel
	lastIntent   *intent.Intent

	// What the assistant last showed, by kind.
	lastShownBalance  *int64
	lastShownFiat     *decimal.Decimal
	lastShownCurrency string
	lastShownTxs      []wallet.Tx
	lastShownFees     *wallet.FeeEstimates
	lastShownAddress  string
	lastSentTx        *wallet.Tx

	// Behavioral signals used to shade reply tone.
	usesEmoji   bool
	language    string // "en", "es", "fr"
	msgCount    int
	totalLength int
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{language: "en"}
}

// RecordUserMessage appends a user turn and updates the last-mentioned
// projections from it. Only fields present in the message overwrite.
func (m *Memory) RecordUserMessage(text string, in *intent.Intent, ents extract.Entities) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appendTurn(Turn{Role: RoleUser, Text: text, Intent: in, Entities: ents, At: time.Now()})

	if ents.Address != "" {
		m.lastAddress = ents.Address
	}
	if ents.Amount != nil && !ents.IsAll() && !ents.IsHalf() {
		a := *ents.Amount
		m.lastAmount = &a
		m.lastUnit = ents.Unit
	}
	if ents.TxID != "" {
		m.lastTxID = ents.TxID
	}
	if ents.FeeLevel != extract.FeeNone {
		m.lastFeeLevel = ents.FeeLevel
	}
	if in != nil && in.Kind != intent.KindUnknown &&
		in.Kind != intent.KindConfirmAction && in.Kind != intent.KindCancelAction {
		cp := *in
		m.lastIntent = &cp
	}

	m.msgCount++
	m.totalLength += len(text)
	if !m.usesEmoji && containsEmoji(text) {
		m.usesEmoji = true
	}
	if lang := detectLanguage(text); lang != "" {
		m.language = lang
	}
}

// RecordAIResponse appends an assistant turn and updates the last-shown
// projections from what it surfaced.
func (m *Memory) RecordAIResponse(text string, shown ShownData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appendTurn(Turn{Role: RoleAssistant, Text: text, At: time.Now()})

	if shown.BalanceSats != nil {
		v := *shown.BalanceSats
		m.lastShownBalance = &v
	}
	if shown.FiatBalance != nil {
		v := *shown.FiatBalance
		m.lastShownFiat = &v
		m.lastShownCurrency = shown.FiatCurrency
	}
	if len(shown.Transactions) > 0 {
		m.lastShownTxs = append([]wallet.Tx(nil), shown.Transactions...)
	}
	if shown.FeeEstimates != nil {
		v := *shown.FeeEstimates
		m.lastShownFees = &v
	}
	if shown.ReceiveAddress != "" {
		m.lastShownAddress = shown.ReceiveAddress
		// An address the assistant just displayed is also the most recently
		// mentioned one.
		m.lastAddress = shown.ReceiveAddress
	}
	if shown.SentTx != nil {
		v := *shown.SentTx
		m.lastSentTx = &v
		m.lastTxID = v.TxID
	}
}

// Reset clears the whole context atomically.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
	m.lastAddress = ""
	m.lastAmount = nil
	m.lastUnit = extract.UnitNone
	m.lastTxID = ""
	m.lastFeeLevel = extract.FeeNone
	m.lastIntent = nil
	m.lastShownBalance = nil
	m.lastShownFiat = nil
	m.lastShownCurrency = ""
	m.lastShownTxs = nil
	m.lastShownFees = nil
	m.lastShownAddress = ""
	m.lastSentTx = nil
	m.usesEmoji = false
	m.language = "en"
	m.msgCount = 0
	m.totalLength = 0
}

func (m *Memory) appendTurn(t Turn) {
	m.turns = append(m.turns, t)
	if len(m.turns) > maxTurns {
		m.turns = m.turns[len(m.turns)-maxTurns:]
	}
}

// --- projections ------------------------------------------------------------

// LastAddress returns the most recently mentioned or shown address.
func (m *Memory) LastAddress() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAddress
}

// LastAmount returns the most recently mentioned concrete amount and its
// unit, or nil when none was mentioned. Sentinels are never remembered.
func (m *Memory) LastAmount() (*decimal.Decimal, extract.Unit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastAmount == nil {
		return nil, extract.UnitNone
	}
	a := *m.lastAmount
	return &a, m.lastUnit
}

// LastTxID returns the most recently mentioned transaction id.
func (m *Memory) LastTxID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTxID
}

// LastFeeLevel returns the most recently mentioned fee urgency.
func (m *Memory) LastFeeLevel() extract.FeeLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFeeLevel
}

// LastIntent returns a copy of the last substantive intent, for "do it
// again" style repeats. Confirmations, cancellations, and unknowns are never
// recorded here.
func (m *Memory) LastIntent() *intent.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastIntent == nil {
		return nil
	}
	cp := *m.lastIntent
	return &cp
}

// LastShownTransactions returns the transactions from the most recent
// history listing, in display order.
func (m *Memory) LastShownTransactions() []wallet.Tx {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]wallet.Tx(nil), m.lastShownTxs...)
}

// LastShownBalance returns the balance the assistant last displayed.
func (m *Memory) LastShownBalance() *int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastShownBalance == nil {
		return nil
	}
	v := *m.lastShownBalance
	return &v
}

// LastShownAddress returns the receive address the assistant last displayed.
func (m *Memory) LastShownAddress() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastShownAddress
}

// LastSentTx returns the transaction from the most recent completed send.
func (m *Memory) LastSentTx() *wallet.Tx {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastSentTx == nil {
		return nil
	}
	v := *m.lastSentTx
	return &v
}

// Turns returns a copy of the rolling transcript, oldest first.
func (m *Memory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Turn(nil), m.turns...)
}

// UsesEmoji reports whether the user has sent emoji in this conversation.
func (m *Memory) UsesEmoji() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usesEmoji
}

// Language returns the detected conversation language code.
func (m *Memory) Language() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.language
}

// AvgMessageLength returns the running average user-message length in bytes.
func (m *Memory) AvgMessageLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msgCount == 0 {
		return 0
	}
	return m.totalLength / m.msgCount
}

// --- behavioral detection ---------------------------------------------------

func containsEmoji(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.So, unicode.Sk) || (r >= 0x1F300 && r <= 0x1FAFF) {
			return true
		}
	}
	return false
}

// Distinctive words per language; function words shared with English are
// deliberately left out.
var languageMarkers = map[string][]string{
	"es": {"envía", "enviar", "saldo", "cuánto", "cuanto", "dirección",
		"gracias", "hola", "quiero", "precio", "comisión", "cancela"},
	"fr": {"envoie", "envoyer", "solde", "combien", "adresse", "merci",
		"bonjour", "je veux", "prix", "frais", "annule"},
}

func detectLanguage(text string) string {
	lower := strings.ToLower(text)
	for lang, words := range languageMarkers {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return lang
			}
		}
	}
	return ""
}
