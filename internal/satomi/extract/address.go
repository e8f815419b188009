package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Address extraction is structural only: prefix + length + charset envelopes
// per address family. Checksum verification (base58check, bech32) is
// deliberately deferred to the signing collaborator, which must reject a
// mistyped address before anything irreversible happens.

// Family identifies the structural address family a candidate matched.
type Family string

const (
	FamilyLegacy  Family = "legacy"   // P2PKH, base58, prefix 1 / m / n
	FamilyScript  Family = "p2sh"     // P2SH, base58, prefix 3 / 2
	FamilySegwit  Family = "segwit"   // P2WPKH/P2WSH, bech32, bc1q / tb1q
	FamilyTaproot Family = "taproot"  // P2TR, bech32m, bc1p / tb1p
	FamilyNone    Family = ""
)

const bech32Charset = `qpzry9x8gf2tvdw0s3jn54khce6mua7l`

var addressPatterns = []struct {
	family  Family
	testnet bool
	re      *regexp.Regexp
}{
	// bech32 families first: their prefixes are more specific than the
	// single-character base58 version bytes.
	{FamilyTaproot, false, regexp.MustCompile(`(?i)\bbc1p[` + bech32Charset + `]{58}\b`)},
	{FamilyTaproot, true, regexp.MustCompile(`(?i)\btb1p[` + bech32Charset + `]{58}\b`)},
	{FamilySegwit, false, regexp.MustCompile(`(?i)\bbc1q[` + bech32Charset + `]{38,58}\b`)},
	{FamilySegwit, true, regexp.MustCompile(`(?i)\btb1q[` + bech32Charset + `]{38,58}\b`)},
	// Base58check addresses run 25 to 35 characters including the version
	// prefix.
	{FamilyLegacy, false, regexp.MustCompile(`\b1[1-9A-HJ-NP-Za-km-z]{24,34}\b`)},
	{FamilyScript, false, regexp.MustCompile(`\b3[1-9A-HJ-NP-Za-km-z]{24,34}\b`)},
	{FamilyLegacy, true, regexp.MustCompile(`\b[mn][1-9A-HJ-NP-Za-km-z]{24,34}\b`)},
	{FamilyScript, true, regexp.MustCompile(`\b2[1-9A-HJ-NP-Za-km-z]{24,34}\b`)},
}

// ExtractAddress returns the first structurally valid address candidate in
// text, with trailing punctuation stripped, or "" when none is present.
// Bech32 candidates are lowercased; mixed-case bech32 is rejected.
func ExtractAddress(text string) string {
	norm := Normalize(text)
	// A txid is pure hex and can embed base58-shaped runs; blank them out so
	// they are never misread as legacy addresses.
	norm = txidRe.ReplaceAllString(norm, " ")

	for _, p := range addressPatterns {
		for _, cand := range p.re.FindAllString(norm, -1) {
			cand = strings.TrimRight(cand, ".,;:!?)\"'")
			if p.family == FamilySegwit || p.family == FamilyTaproot {
				lower := strings.ToLower(cand)
				upper := strings.ToUpper(cand)
				if cand != lower && cand != upper {
					continue // mixed-case bech32 is invalid by construction
				}
				cand = lower
			}
			if cand != "" {
				return cand
			}
		}
	}
	return ""
}

// DetectFamily classifies an address string by its structural envelope.
// Returns the family and whether the address is a testnet one.
func DetectFamily(addr string) (Family, bool) {
	for _, p := range addressPatterns {
		if m := p.re.FindString(addr); m == addr && addr != "" {
			return p.family, p.testnet
		}
	}
	return FamilyNone, false
}

// --- BIP21 payment URIs ----------------------------------------------------

// bip21 is the parsed form of a bitcoin: payment URI. The URI yields address
// and amount atomically, with an implied BTC unit for the amount.
type bip21 struct {
	Address string
	Amount  *decimal.Decimal
	Label   string
}

var bip21Re = regexp.MustCompile(`(?i)\bbitcoin:([a-zA-Z0-9]{14,74})(\?\S*)?`)

func parseBIP21(text string) (bip21, bool) {
	m := bip21Re.FindStringSubmatch(text)
	if m == nil {
		return bip21{}, false
	}
	addr := m[1]
	if fam, _ := DetectFamily(addr); fam == FamilyNone {
		// Try lowercased — QR payloads often upper-case the whole URI.
		lower := strings.ToLower(addr)
		if fam, _ := DetectFamily(lower); fam == FamilyNone {
			return bip21{}, false
		}
		addr = lower
	}

	out := bip21{Address: addr}
	if m[2] != "" {
		q, err := url.ParseQuery(strings.TrimPrefix(strings.TrimRight(m[2], ".,;:!?)"), "?"))
		if err == nil {
			if raw := q.Get("amount"); raw != "" {
				if d, err := decimal.NewFromString(raw); err == nil && d.IsPositive() && !exceedsSupply(d, UnitBTC) {
					out.Amount = &d
				}
			}
			out.Label = q.Get("label")
		}
	}
	return out, true
}
