package intent

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/seijun/satomi/internal/satomi/extract"
)

// unknownConfidence is the confidence attached to the fallback result when
// no category clears a usable match.
const unknownConfidence = 0.30

// MinActionable is the threshold below which dispatch treats a
// classification as a best-guess rather than something to act on.
const MinActionable = 0.70

// category is one intent class with its matching material. Categories are
// evaluated in a fixed priority order (confirmation and cancellation first,
// then actions, then informational) which doubles as the deterministic
// tie-break for equal confidence.
type category struct {
	kind   Kind
	action bool

	keywords  []string         // exact token hits → StrengthExact
	shortOnly []string         // exact tokens honored only in inputs ≤3 tokens
	phrases   []string         // substring phrases → StrengthStrong
	patterns  []*regexp.Regexp // distinctive structures → StrengthStrong
	weak      []string         // loose contextual words → StrengthWeak
	excludes  []*regexp.Regexp // any hit skips the category entirely

	// build attaches payload fields from the extracted entities. Nil means
	// the bare kind.
	build func(text string, ents extract.Entities) Intent
}

// Classifier scores text against the closed category set. It is stateless;
// one instance is shared by every conversation.
type Classifier struct {
	categories []category
}

// NewClassifier returns the classifier with the built-in category table.
func NewClassifier() *Classifier {
	return &Classifier{categories: buildCategories()}
}

// ScoredMatch classifies text and returns every matching category as an
// ordered score list, confidence descending, category order as tie-break.
// When nothing matches, the single result is unknown(text) at low
// confidence — ambiguity is an outcome here, never an error.
func (c *Classifier) ScoredMatch(text string, ents extract.Entities) []Score {
	norm := extract.Normalize(text)
	lower := strings.ToLower(norm)
	tokens := tokenize(lower)
	singleToken := len(tokens) == 1

	var scores []Score
	for _, cat := range c.categories {
		strength, provenance, ok := cat.match(lower, tokens, singleToken)
		if !ok {
			continue
		}
		in := Intent{Kind: cat.kind}
		if cat.build != nil {
			in = cat.build(norm, ents)
		}
		scores = append(scores, Score{Intent: in, Confidence: strength.Confidence(), Provenance: provenance})
	}

	if len(scores) == 0 {
		return []Score{{
			Intent:     Unknown(text),
			Confidence: unknownConfidence,
			Provenance: "fallback",
		}}
	}

	// An explicit new-address request outranks a generic receive match no
	// matter which tier each side hit: "receive on a fresh address" is a
	// new-address request even though "receive" is an exact keyword.
	naIdx, rcIdx := -1, -1
	for i, s := range scores {
		switch s.Intent.Kind {
		case KindNewAddress:
			naIdx = i
		case KindReceive:
			rcIdx = i
		}
	}
	if naIdx >= 0 && rcIdx >= 0 && scores[naIdx].Confidence <= scores[rcIdx].Confidence {
		scores[naIdx].Confidence = scores[rcIdx].Confidence + newAddressEdge
	}

	// Stable: equal confidences keep category-evaluation order.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Confidence > scores[j].Confidence
	})
	return scores
}

func (cat *category) match(lower string, tokens []string, singleToken bool) (Strength, string, bool) {
	for _, re := range cat.excludes {
		if re.MatchString(lower) {
			return 0, "", false
		}
	}

	for _, kw := range cat.keywords {
		if hasToken(tokens, kw) {
			return StrengthExact, "keyword:" + kw, true
		}
	}
	if len(tokens) <= 3 {
		for _, kw := range cat.shortOnly {
			if hasToken(tokens, kw) {
				return StrengthExact, "keyword:" + kw, true
			}
		}
	}
	for _, p := range cat.phrases {
		if strings.Contains(lower, p) {
			return StrengthStrong, "phrase:" + p, true
		}
	}
	for _, re := range cat.patterns {
		if re.MatchString(lower) {
			return StrengthStrong, "pattern:" + re.String(), true
		}
	}
	for _, w := range cat.weak {
		if hasToken(tokens, w) {
			return StrengthWeak, "weak:" + w, true
		}
	}

	// Typo tolerance applies only to single-token input, with an
	// edit-distance budget scaled to the keyword length.
	if singleToken {
		tok := tokens[0]
		for _, kw := range cat.keywords {
			if fuzzyEqual(tok, kw) {
				return StrengthWeak, "fuzzy:" + kw, true
			}
		}
	}
	return 0, "", false
}

// fuzzyEqual reports a within-budget edit distance between a token and a
// keyword. Budget: 1 edit up to 4 chars, 2 up to 8, 3 beyond.
func fuzzyEqual(token, keyword string) bool {
	if token == keyword {
		return true
	}
	budget := 1
	switch {
	case len(keyword) > 8:
		budget = 3
	case len(keyword) > 4:
		budget = 2
	}
	if abs(len(token)-len(keyword)) > budget {
		return false
	}
	return levenshtein.ComputeDistance(token, keyword) <= budget
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func tokenize(lower string) []string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'' ||
			r == 'á' || r == 'é' || r == 'í' || r == 'ó' || r == 'ú' ||
			r == 'à' || r == 'è' || r == 'ê' || r == 'ñ' || r == 'ç' || r == 'ü')
	})
	return fields
}

func hasToken(tokens []string, kw string) bool {
	for _, t := range tokens {
		if t == kw {
			return true
		}
	}
	return false
}

// --- lexicon helpers for the segmenter -------------------------------------

// KeywordCount counts distinct wallet keywords and phrases present in text.
// The multi-intent segmenter fast-exits when fewer than two are present.
func (c *Classifier) KeywordCount(text string) int {
	lower := strings.ToLower(extract.Normalize(text))
	tokens := tokenize(lower)
	count := 0
	for _, cat := range c.categories {
		if cat.kind == KindConfirmAction || cat.kind == KindCancelAction || cat.kind == KindGreeting {
			continue
		}
		hit := false
		for _, kw := range cat.keywords {
			if hasToken(tokens, kw) {
				hit = true
				break
			}
		}
		if !hit {
			for _, p := range cat.phrases {
				if strings.Contains(lower, p) {
					hit = true
					break
				}
			}
		}
		if hit {
			count++
		}
	}
	return count
}

// LooksLikeCommand reports whether text contains at least one wallet keyword
// or phrase — the bar a clause must clear before the segmenter will treat it
// as an independent command.
func (c *Classifier) LooksLikeCommand(text string) bool {
	return c.KeywordCount(text) >= 1
}

// ContainsActionKeyword reports whether text matches any action category
// (send, receive, bump fee, …). Action segments displace informational ones
// during compound-request splitting.
func (c *Classifier) ContainsActionKeyword(text string) bool {
	lower := strings.ToLower(extract.Normalize(text))
	tokens := tokenize(lower)
	for _, cat := range c.categories {
		if !cat.action || cat.kind == KindConfirmAction || cat.kind == KindCancelAction {
			continue
		}
		excluded := false
		for _, re := range cat.excludes {
			if re.MatchString(lower) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		for _, kw := range cat.keywords {
			if hasToken(tokens, kw) {
				return true
			}
		}
		for _, p := range cat.phrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
	}
	return false
}

// ActionKind returns the kind of the first action category matching text,
// or KindUnknown. Used to discard a second, conflicting action segment.
func (c *Classifier) ActionKind(text string) Kind {
	lower := strings.ToLower(extract.Normalize(text))
	tokens := tokenize(lower)
	for _, cat := range c.categories {
		if !cat.action || cat.kind == KindConfirmAction || cat.kind == KindCancelAction {
			continue
		}
		for _, kw := range cat.keywords {
			if hasToken(tokens, kw) {
				return cat.kind
			}
		}
		for _, p := range cat.phrases {
			if strings.Contains(lower, p) {
				return cat.kind
			}
		}
	}
	return KindUnknown
}
