// Package extract parses structured wallet entities — amounts, addresses,
// transaction ids, counts, fee levels, currencies — out of free-form chat
// text. Extraction is layered regular expressions and lookup tables; a field
// that cannot be found is simply absent, never an error.
//
// All entry points normalize the input first (Unicode punctuation folded to
// ASCII, whitespace collapsed) because every downstream pattern assumes
// ASCII punctuation.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is the display scale attached to an extracted amount. It is a
// presentation tag, not a type distinction — 0.005 BTC and 500000 sats are
// the same quantity.
type Unit string

const (
	UnitNone Unit = ""
	UnitBTC  Unit = "btc"
	UnitSats Unit = "sats"
)

// FeeLevel is the urgency tag extracted from fee-related wording.
type FeeLevel string

const (
	FeeNone   FeeLevel = ""
	FeeSlow   FeeLevel = "slow"
	FeeMedium FeeLevel = "medium"
	FeeFast   FeeLevel = "fast"
	FeeCustom FeeLevel = "custom"
)

// Sentinel amounts. AmountAll means "the entire balance", AmountHalf means
// "half of it"; both are resolved to concrete satoshi values by the flow
// controller against the live snapshot.
var (
	AmountAll  = decimal.NewFromInt(-1)
	AmountHalf = decimal.NewFromFloat(-0.5)
)

// Entities is the per-utterance extraction result. Every field is
// independently optional.
type Entities struct {
	Amount   *decimal.Decimal
	Unit     Unit
	Address  string
	TxID     string
	Count    *int
	FeeLevel FeeLevel
	FeeRate  float64 // sat/vB, set only when FeeLevel == FeeCustom
	Currency string  // ISO-4217 code
}

// HasAmount reports whether an amount (including sentinels) was extracted.
func (e Entities) HasAmount() bool { return e.Amount != nil }

// IsAll reports whether the amount is the entire-balance sentinel.
func (e Entities) IsAll() bool { return e.Amount != nil && e.Amount.Equal(AmountAll) }

// IsHalf reports whether the amount is the half-balance sentinel.
func (e Entities) IsHalf() bool { return e.Amount != nil && e.Amount.Equal(AmountHalf) }

// Empty reports whether nothing at all was extracted.
func (e Entities) Empty() bool {
	return e.Amount == nil && e.Address == "" && e.TxID == "" &&
		e.Count == nil && e.FeeLevel == FeeNone && e.Currency == ""
}

// Merge returns e with any field absent in e filled from other. Explicit
// values in e always win.
func (e Entities) Merge(other Entities) Entities {
	if e.Amount == nil && other.Amount != nil {
		e.Amount = other.Amount
		e.Unit = other.Unit
	}
	if e.Address == "" {
		e.Address = other.Address
	}
	if e.TxID == "" {
		e.TxID = other.TxID
	}
	if e.Count == nil {
		e.Count = other.Count
	}
	if e.FeeLevel == FeeNone {
		e.FeeLevel = other.FeeLevel
		e.FeeRate = other.FeeRate
	}
	if e.Currency == "" {
		e.Currency = other.Currency
	}
	return e
}

// Extract runs the full extraction pass over text.
//
// A BIP21 payment URI is tried first: it yields address and amount
// atomically with an implied BTC unit, and generic address/amount scanning
// is skipped for the fields it filled.
func Extract(text string) Entities {
	norm := Normalize(text)

	var e Entities
	if uri, ok := parseBIP21(norm); ok {
		e.Address = uri.Address
		if uri.Amount != nil {
			e.Amount = uri.Amount
			e.Unit = UnitBTC
		}
		// Blank the URI span so its query parameters are never re-scanned as
		// free-text amounts or counts.
		norm = bip21Re.ReplaceAllString(norm, " ")
	}

	if e.Address == "" {
		e.Address = ExtractAddress(norm)
	}
	if e.Amount == nil {
		if amt, unit, cur, ok := extractAmount(norm); ok {
			e.Amount = &amt
			e.Unit = unit
			if cur != "" {
				e.Currency = cur
			}
		}
	}
	e.TxID = ExtractTxID(norm)
	e.Count = extractCount(norm)
	e.FeeLevel, e.FeeRate = extractFee(norm)
	if e.Currency == "" {
		e.Currency = extractCurrency(norm)
	}
	return e
}

// --- transaction ids -------------------------------------------------------

var txidRe = regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`)

// ExtractTxID returns the first 64-hex-character token in text, lowercased,
// or "" when none is present.
func ExtractTxID(text string) string {
	m := txidRe.FindString(Normalize(text))
	if m == "" {
		return ""
	}
	return strings.ToLower(m)
}

// --- counts ----------------------------------------------------------------

var countRes = []*regexp.Regexp{
	// "last 5", "show 10", "recent 3", "top 20", "últimas 5", "dernières 3"
	regexp.MustCompile(`(?i)\b(?:last|show|recent|top|[uú]ltim\w*|derni[eè]re?s?)\s+(\d{1,3})\b`),
	// "5 transactions", "3 transacciones", "10 txs"
	regexp.MustCompile(`(?i)\b(\d{1,3})\s+(?:transactions?|transacciones|txs?)\b`),
}

func extractCount(text string) *int {
	for _, re := range countRes {
		if m := re.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				continue
			}
			return &n
		}
	}
	return nil
}

// ExtractCount returns the requested item count ("last 5", "3 transactions")
// or nil when the text does not ask for one.
func ExtractCount(text string) *int {
	return extractCount(Normalize(text))
}

// --- fee levels ------------------------------------------------------------

var customFeeRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*sats?\s*/\s*vb(?:yte)?\b`)

// feeKeywords are checked in order: a custom numeric rate always wins, then
// slow before fast so that "not urgent" style phrasings are not swallowed by
// the "urgent" keyword.
var feeKeywords = []struct {
	level FeeLevel
	words []string
}{
	{FeeSlow, []string{
		"no rush", "not urgent", "whenever", "low priority", "economy",
		"slow", "cheap", "cheapest",
		"sin prisa", "lento", "barato", "económico",
		"pas pressé", "lent", "pas urgent", "économique",
	}},
	{FeeFast, []string{
		"as fast as possible", "high priority", "fast", "urgent", "asap",
		"quick", "priority", "express",
		"rápido", "urgente", "prioritario",
		"rapide", "vite", "prioritaire",
	}},
	{FeeMedium, []string{
		"medium", "normal", "standard", "regular",
		"medio", "moyen", "normale",
	}},
}

func extractFee(text string) (FeeLevel, float64) {
	if m := customFeeRe.FindStringSubmatch(text); m != nil {
		rate, err := strconv.ParseFloat(m[1], 64)
		if err == nil && rate > 0 {
			return FeeCustom, rate
		}
	}
	lower := strings.ToLower(text)
	for _, set := range feeKeywords {
		for _, w := range set.words {
			if containsWord(lower, w) {
				return set.level, 0
			}
		}
	}
	return FeeNone, 0
}

// ExtractFee returns the fee urgency tag and, for custom sat/vB input, the
// numeric rate.
func ExtractFee(text string) (FeeLevel, float64) {
	return extractFee(Normalize(text))
}

// --- currencies ------------------------------------------------------------

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
	"₹": "INR",
}

var currencyNames = map[string]string{
	"usd": "USD", "dollar": "USD", "dollars": "USD", "bucks": "USD",
	"dólares": "USD", "dolares": "USD",
	"eur": "EUR", "euro": "EUR", "euros": "EUR",
	"gbp": "GBP", "pound": "GBP", "pounds": "GBP", "quid": "GBP",
	"livres": "GBP",
	"jpy": "JPY", "yen": "JPY",
	"cad": "CAD", "chf": "CHF", "aud": "AUD",
	"mxn": "MXN", "pesos": "MXN", "peso": "MXN",
	"inr": "INR", "rupees": "INR",
	"brl": "BRL", "reais": "BRL",
}

// contextualCurrencyRe catches "in USD", "en euros", "en dollars" style
// phrases used without an amount attached.
var contextualCurrencyRe = regexp.MustCompile(`(?i)\b(?:in|en|to|a)\s+([a-zñó]{3,8})\b`)

func extractCurrency(text string) string {
	for sym, code := range currencySymbols {
		if strings.Contains(text, sym) {
			return code
		}
	}
	lower := strings.ToLower(text)
	for _, m := range contextualCurrencyRe.FindAllStringSubmatch(lower, -1) {
		if code, ok := currencyNames[m[1]]; ok {
			return code
		}
	}
	// Standalone currency word anywhere ("how much is that in euros?" after
	// normalization may lose the preposition).
	for _, w := range strings.Fields(lower) {
		w = strings.Trim(w, ".,!?")
		if code, ok := currencyNames[w]; ok {
			return code
		}
	}
	return ""
}

// ExtractCurrency returns the ISO-4217 code implied by a symbol or currency
// word in text, or "".
func ExtractCurrency(text string) string {
	return extractCurrency(Normalize(text))
}

// containsWord reports whether phrase occurs in text on word boundaries.
// Multi-word phrases are matched as substrings after both sides are
// lowercased; single words require non-letter neighbours.
func containsWord(lower, phrase string) bool {
	if strings.ContainsRune(phrase, ' ') {
		return strings.Contains(lower, phrase)
	}
	idx := 0
	for {
		i := strings.Index(lower[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordByte(lower[start-1])
		afterOK := end == len(lower) || !isWordByte(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
