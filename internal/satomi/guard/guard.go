// Package guard screens incoming messages for wallet secrets before any
// other processing. A message carrying a seed phrase or private key is never
// parsed, never remembered, and never persisted; the engine short-circuits
// to a fixed warning instead.
package guard

import (
	"regexp"
	"strings"

	bip39 "github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
)

// Detection thresholds for seed-phrase shaped input. BIP39 phrases are 12 to
// 24 words; the 80% bar tolerates a few typos or filler words without
// flagging ordinary long sentences.
const (
	minSeedTokens = 12
	seedHitRatio  = 0.8
)

var (
	// Mainnet WIF private keys start with 5 (uncompressed) or K/L
	// (compressed).
	wifRe = regexp.MustCompile(`\b[5KL][1-9A-HJ-NP-Za-km-z]{50,51}\b`)
	// Extended private keys: xprv and its segwit descriptor cousins.
	xprvRe = regexp.MustCompile(`\b[xyz]prv[1-9A-HJ-NP-Za-km-z]{100,112}\b`)

	wordSet = buildWordSet()
)

func buildWordSet() map[string]struct{} {
	set := make(map[string]struct{}, len(wordlists.English))
	for _, w := range wordlists.English {
		set[w] = struct{}{}
	}
	return set
}

// LooksLikeSeedPhrase reports whether text reads as a BIP39 mnemonic: at
// least twelve words with four fifths of them on the English wordlist. An
// exactly valid mnemonic (checksum included) always passes this bar.
func LooksLikeSeedPhrase(text string) bool {
	fields := strings.Fields(strings.ToLower(text))
	var words []string
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'")
		if f != "" && isAlpha(f) {
			words = append(words, f)
		}
	}
	if len(words) < minSeedTokens {
		return false
	}

	hits := 0
	for _, w := range words {
		if _, ok := wordSet[w]; ok {
			hits++
		}
	}
	if float64(hits)/float64(len(words)) >= seedHitRatio {
		return true
	}

	// A shorter exact mnemonic embedded in chatter still counts.
	return bip39.IsMnemonicValid(strings.Join(words, " "))
}

// ContainsPrivateKey reports whether text carries a WIF or extended private
// key.
func ContainsPrivateKey(text string) bool {
	return wifRe.MatchString(text) || xprvRe.MatchString(text)
}

// ContainsSecret reports whether text must be refused outright.
func ContainsSecret(text string) bool {
	return LooksLikeSeedPhrase(text) || ContainsPrivateKey(text)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
