// Package refer resolves references back into concrete values using the
// conversation memory: "that address", "the same amount", "double it",
// "the second one", "do it again". Resolution only ever fills values the
// memory actually holds; an unresolvable reference stays unresolved and the
// caller asks instead of guessing.
//
// Enrichment is append-only and idempotent: explicitly extracted entities
// always win over resolved ones, and enriching an already-enriched result a
// second time changes nothing.
package refer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seijun/satomi/internal/satomi/extract"
	"github.com/seijun/satomi/internal/satomi/intent"
	"github.com/seijun/satomi/internal/satomi/memory"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

// Resolution is the outcome of one resolution pass.
type Resolution struct {
	// Entities holds the values the references resolved to.
	Entities extract.Entities
	// RepeatIntent is set when the message asks to repeat the previous
	// substantive request ("do it again").
	RepeatIntent *intent.Intent
	// ReferencedTx is set when an ordinal picked a transaction out of the
	// most recent history listing.
	ReferencedTx *wallet.Tx
	// Correction marks "actually, make it …" phrasing, so a pending draft
	// field is replaced rather than questioned.
	Correction bool
}

var (
	addressRefRe = regexp.MustCompile(`(?i)\b(?:that|this|the same|same|the)\s+address\b|` +
		`(?:esa|esta|la misma)\s+direcci[oó]n|(?:cette|la même)\s+adresse`)
	amountRefRe = regexp.MustCompile(`(?i)\b(?:the\s+)?same\s+amount\b|` +
		`(?:la misma|el mismo)\s+(?:cantidad|monto)|(?:le|la)\s+même\s+montant`)
	txRefRe = regexp.MustCompile(`(?i)\b(?:that|this)\s+(?:transaction|tx)\b|` +
		`esa\s+transacci[oó]n|cette\s+transaction`)

	doubleRe  = regexp.MustCompile(`(?i)\b(?:double|twice)\s+(?:it|that)\b|\bdouble\s+the\s+amount\b|\bel\s+doble\b|\ble\s+double\b`)
	halfRefRe = regexp.MustCompile(`(?i)\bhalf\s+(?:of\s+)?(?:it|that)\b|\bla\s+mitad\s+de\s+es[oa]\b|\bla\s+moitié\s+de\s+ça\b`)
	moreRe    = regexp.MustCompile(`(?i)\ba\s+(?:bit|little)\s+more\b|\bun\s+poco\s+más\b|\bun\s+peu\s+plus\b`)
	lessRe    = regexp.MustCompile(`(?i)\ba\s+(?:bit|little)\s+less\b|\bun\s+poco\s+menos\b|\bun\s+peu\s+moins\b`)

	againRe = regexp.MustCompile(`(?i)\b(?:again|one more time|same as last time)\b|\botra\s+vez\b|\bde\s+nuevo\b|\bencore\b`)

	correctionRe = regexp.MustCompile(`(?i)\b(?:actually|make it|change (?:it|that) to|instead)\b|` +
		`\bmejor\s+que\s+sea\b|\ben fait\b|\bplutôt\b`)

	ordinalNumRe     = regexp.MustCompile(`(?i)(?:#|\bnumber\s+|\bno\.?\s*)(\d{1,3})\b`)
	ordinalContextRe = regexp.MustCompile(`(?i)\bone\b|\btransaction\b|\btx\b|\btransacci[oó]n\b|\bcelui\b|\bcelle\b`)
)

var ordinalWords = []struct {
	re  *regexp.Regexp
	idx int
}{
	{regexp.MustCompile(`(?i)\b(?:first|primer[oa]|premi[eè]re?)\b`), 0},
	{regexp.MustCompile(`(?i)\b(?:second|segund[oa]|deuxième)\b`), 1},
	{regexp.MustCompile(`(?i)\b(?:third|tercer[oa]|troisième)\b`), 2},
	{regexp.MustCompile(`(?i)\b(?:fourth|cuart[oa]|quatrième)\b`), 3},
	{regexp.MustCompile(`(?i)\b(?:fifth|quint[oa]|cinquième)\b`), 4},
}

// Resolve scans text for references and grounds them in mem. Every field of
// the result is independently optional.
func Resolve(text string, mem *memory.Memory) Resolution {
	norm := extract.Normalize(text)
	lower := strings.ToLower(norm)

	var res Resolution

	if addressRefRe.MatchString(lower) {
		if addr := mem.LastAddress(); addr != "" {
			res.Entities.Address = addr
		}
	}

	if amountRefRe.MatchString(lower) {
		if amt, unit := mem.LastAmount(); amt != nil {
			res.Entities.Amount = amt
			res.Entities.Unit = unit
		}
	}

	if scale, ok := scaleFor(lower); ok {
		if amt, unit := mem.LastAmount(); amt != nil {
			scaled := amt.Mul(scale)
			res.Entities.Amount = &scaled
			res.Entities.Unit = unit
		}
	}

	if txRefRe.MatchString(lower) {
		if txid := mem.LastTxID(); txid != "" {
			res.Entities.TxID = txid
		}
	}

	if tx, ok := ordinalTx(lower, mem); ok {
		res.ReferencedTx = &tx
		res.Entities.TxID = tx.TxID
	}

	if againRe.MatchString(lower) {
		res.RepeatIntent = mem.LastIntent()
	}

	res.Correction = correctionRe.MatchString(lower)
	return res
}

// Enrich merges resolved references into the explicitly extracted entities.
// Explicit values always win, which also makes a second pass a no-op.
func Enrich(text string, ents extract.Entities, mem *memory.Memory) (extract.Entities, Resolution) {
	res := Resolve(text, mem)
	return ents.Merge(res.Entities), res
}

// scaleFor maps relative-amount wording to a multiplier on the last
// mentioned amount.
func scaleFor(lower string) (decimal.Decimal, bool) {
	switch {
	case doubleRe.MatchString(lower):
		return decimal.NewFromInt(2), true
	case halfRefRe.MatchString(lower):
		return decimal.NewFromFloat(0.5), true
	case moreRe.MatchString(lower):
		return decimal.NewFromFloat(1.1), true
	case lessRe.MatchString(lower):
		return decimal.NewFromFloat(0.9), true
	}
	return decimal.Decimal{}, false
}

// ordinalTx picks a transaction out of the last shown listing by position:
// "the second one", "#3", "the last one". Out-of-range ordinals resolve to
// nothing.
func ordinalTx(lower string, mem *memory.Memory) (wallet.Tx, bool) {
	txs := mem.LastShownTransactions()
	if len(txs) == 0 {
		return wallet.Tx{}, false
	}

	idx := -1
	if m := ordinalNumRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 {
			idx = n - 1
		}
	}
	// Ordinal words only count near an object ("the second one", "show the
	// third transaction"); a bare "second" in prose is not a reference.
	if idx < 0 && ordinalContextRe.MatchString(lower) {
		for _, ord := range ordinalWords {
			if ord.re.MatchString(lower) {
				idx = ord.idx
				break
			}
		}
	}
	if idx < 0 && regexp.MustCompile(`(?i)\bthe\s+last\s+one\b|\bla\s+última\b|\ble\s+dernier\b`).MatchString(lower) {
		idx = len(txs) - 1
	}

	if idx < 0 || idx >= len(txs) {
		return wallet.Tx{}, false
	}
	return txs[idx], true
}
