package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount resolution order, first match wins:
//
//  1. entire-balance words ("all", "max", "everything", …)  → −1
//  2. half words ("half", "mitad", "moitié")                → −0.5
//  3. spelled-out word numbers ("two hundred sats")
//  4. symbol-prefixed fiat ("$100", "€50")
//  5. symbol-suffixed fiat ("100€")
//  6. bare numeric with optional k/m multiplier and unit or
//     currency suffix ("0.005 btc", "500k sats", "100 usd", ".005")
//
// Thousands separators are stripped before parsing. Values above the total
// bitcoin supply are rejected. A bare integer ≥1000 with no decimal point
// and no suffix is promoted to sats; this is a deliberate disambiguation
// rule for chat input like "send 5000", not a defect.

var allWords = []string{
	"all", "everything", "max", "maximum", "entire balance", "whole balance",
	"all of it", "todo", "máximo", "maximo", "todo el saldo",
	"tout", "le maximum", "tout le solde",
}

var halfWords = []string{
	"half", "mitad", "la mitad", "moitié", "la moitié",
}

// ExtractAmount runs the full amount resolution order over text and reports
// the extracted amount, its display unit, and any currency implied by a
// fiat symbol.
func ExtractAmount(text string) (decimal.Decimal, Unit, string, bool) {
	return extractAmount(Normalize(text))
}

func extractAmount(text string) (decimal.Decimal, Unit, string, bool) {
	lower := strings.ToLower(text)

	for _, w := range allWords {
		if containsWord(lower, w) {
			return AmountAll, UnitNone, "", true
		}
	}
	for _, w := range halfWords {
		if containsWord(lower, w) {
			return AmountHalf, UnitNone, "", true
		}
	}

	if amt, unit, ok := wordNumberAmount(lower); ok {
		return amt, unit, "", true
	}

	if amt, cur, ok := symbolPrefixedAmount(text); ok {
		return amt, UnitNone, cur, true
	}
	if amt, cur, ok := symbolSuffixedAmount(text); ok {
		return amt, UnitNone, cur, true
	}

	return bareNumericAmount(text)
}

// --- spelled-out word numbers ----------------------------------------------

var numberWords = map[string]int64{
	// English
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"thirty": 30, "forty": 40, "fifty": 50, "sixty": 60, "seventy": 70,
	"eighty": 80, "ninety": 90,
	// Spanish
	"uno": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5, "seis": 6,
	"siete": 7, "ocho": 8, "nueve": 9, "diez": 10, "veinte": 20,
	"treinta": 30, "cincuenta": 50,
	// French
	"un": 1, "une": 1, "deux": 2, "trois": 3, "quatre": 4, "cinq": 5,
	"sept": 7, "huit": 8, "neuf": 9, "dix": 10, "vingt": 20,
	"trente": 30, "cinquante": 50,
}

var multiplierWords = map[string]int64{
	"hundred": 100, "thousand": 1_000, "million": 1_000_000,
	"cien": 100, "mil": 1_000, "millón": 1_000_000, "millon": 1_000_000,
	"cent": 100, "mille": 1_000,
}

var unitWords = map[string]Unit{
	"btc": UnitBTC, "bitcoin": UnitBTC, "bitcoins": UnitBTC,
	"sat": UnitSats, "sats": UnitSats, "satoshi": UnitSats, "satoshis": UnitSats,
}

var articleWords = map[string]bool{
	"a": true, "an": true, "un": true, "una": true, "une": true,
}

// wordNumberAmount parses a contiguous run of number words, optionally
// followed by a unit word ("two hundred thousand sats"). An article
// immediately before a unit word counts as one ("a bitcoin").
func wordNumberAmount(lower string) (decimal.Decimal, Unit, bool) {
	tokens := strings.Fields(lower)
	for i := 0; i < len(tokens); i++ {
		tok := strings.Trim(tokens[i], ".,!?;:")

		// "a bitcoin" / "un bitcoin" → 1 of that unit.
		if articleWords[tok] && i+1 < len(tokens) {
			next := strings.Trim(tokens[i+1], ".,!?;:")
			if unit, ok := unitWords[next]; ok {
				return decimal.NewFromInt(1), unit, true
			}
			continue
		}

		if _, isNum := numberWords[tok]; !isNum {
			continue
		}

		// Accumulate the contiguous run starting here.
		var acc, cur int64
		j := i
		for ; j < len(tokens); j++ {
			w := strings.Trim(tokens[j], ".,!?;:")
			if n, ok := numberWords[w]; ok {
				cur += n
				continue
			}
			if m, ok := multiplierWords[w]; ok {
				if cur == 0 {
					cur = 1
				}
				if m >= 1_000 {
					acc += cur * m
					cur = 0
				} else {
					cur *= m
				}
				continue
			}
			break
		}
		value := acc + cur
		if value <= 0 {
			continue
		}

		unit := UnitNone
		if j < len(tokens) {
			w := strings.Trim(tokens[j], ".,!?;:")
			if u, ok := unitWords[w]; ok {
				unit = u
			}
		}
		d := decimal.NewFromInt(value)
		if exceedsSupply(d, unit) {
			return decimal.Decimal{}, UnitNone, false
		}
		return d, unit, true
	}
	return decimal.Decimal{}, UnitNone, false
}

// --- fiat symbols ----------------------------------------------------------

var symbolPrefixRe = regexp.MustCompile(`([$€£¥₹])\s?(\d[\d,]*(?:\.\d+)?|\.\d+)\s?([kKmM])?\b`)
var symbolSuffixRe = regexp.MustCompile(`\b(\d[\d,]*(?:\.\d+)?|\.\d+)\s?([kKmM])?\s?([$€£¥₹])`)

func symbolPrefixedAmount(text string) (decimal.Decimal, string, bool) {
	m := symbolPrefixRe.FindStringSubmatch(text)
	if m == nil {
		return decimal.Decimal{}, "", false
	}
	d, ok := parseNumeric(m[2], m[3])
	if !ok {
		return decimal.Decimal{}, "", false
	}
	return d, currencySymbols[m[1]], true
}

func symbolSuffixedAmount(text string) (decimal.Decimal, string, bool) {
	m := symbolSuffixRe.FindStringSubmatch(text)
	if m == nil {
		return decimal.Decimal{}, "", false
	}
	d, ok := parseNumeric(m[1], m[2])
	if !ok {
		return decimal.Decimal{}, "", false
	}
	return d, currencySymbols[m[3]], true
}

// --- bare numerics ---------------------------------------------------------

var bareNumericRe = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?|\.\d+)\s*([km])?\s*(btc|bitcoins?|sats?|satoshis?|usd|eur|gbp|jpy|cad|aud|chf|mxn|dollars?|euros?|pounds?|pesos?)?\b`)

// leadingDotRe rewrites ".005" to "0.005" so the word-boundary anchor in
// bareNumericRe can see it.
var leadingDotRe = regexp.MustCompile(`(^|[^0-9.])\.(\d)`)

// bareNumericAmount handles the final layer: a number with optional k/m
// multiplier and optional unit or currency suffix. Spans already claimed by
// the custom-fee, count, and txid patterns are blanked first so "25 sats/vb"
// or "last 5 transactions" never surface as amounts.
func bareNumericAmount(text string) (decimal.Decimal, Unit, string, bool) {
	scrubbed := leadingDotRe.ReplaceAllString(text, "${1}0.$2")
	scrubbed = customFeeRe.ReplaceAllString(scrubbed, " ")
	for _, re := range countRes {
		scrubbed = re.ReplaceAllString(scrubbed, " ")
	}
	scrubbed = txidRe.ReplaceAllString(scrubbed, " ")

	for _, m := range bareNumericRe.FindAllStringSubmatch(scrubbed, -1) {
		literal, mult, suffix := m[1], m[2], strings.ToLower(m[3])
		d, ok := parseNumeric(literal, mult)
		if !ok {
			continue
		}

		unit := UnitNone
		currency := ""
		switch {
		case suffix == "":
			// Unsuffixed integer ≥1000 with no decimal point reads as sats
			// in chat ("send 5000"). Deliberate promotion rule.
			if mult == "" && !strings.Contains(literal, ".") && d.GreaterThanOrEqual(decimal.NewFromInt(1000)) {
				unit = UnitSats
			}
		default:
			if u, isUnit := unitWords[suffix]; isUnit {
				unit = u
			} else if code, isCur := currencyNames[suffix]; isCur {
				currency = code
			} else {
				// ISO code straight through (usd, eur, …).
				currency = strings.ToUpper(suffix)
			}
		}

		if currency == "" && exceedsSupply(d, unit) {
			continue
		}
		return d, unit, currency, true
	}
	return decimal.Decimal{}, UnitNone, "", false
}

// parseNumeric parses a numeric literal with thousands separators stripped
// and an optional k/m multiplier applied.
func parseNumeric(literal, mult string) (decimal.Decimal, bool) {
	literal = strings.ReplaceAll(literal, ",", "")
	d, err := decimal.NewFromString(literal)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	switch strings.ToLower(mult) {
	case "k":
		d = d.Mul(decimal.NewFromInt(1_000))
	case "m":
		d = d.Mul(decimal.NewFromInt(1_000_000))
	}
	return d, true
}

// exceedsSupply reports whether the amount is above 21,000,000 BTC
// equivalent for its unit. Fiat amounts are not bounded here — conversion
// happens later against a live price.
func exceedsSupply(d decimal.Decimal, unit Unit) bool {
	switch unit {
	case UnitSats:
		return d.GreaterThan(decimal.NewFromInt(21_000_000 * 100_000_000))
	default:
		return d.GreaterThan(decimal.NewFromInt(21_000_000))
	}
}
