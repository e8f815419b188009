// Package segment splits compound chat requests ("send 1 BTC to … and check
// my balance") into independently classifiable segments. Splitting is
// conservative: a clause pair is only divided when both halves qualify as
// wallet commands on their own, so prose that merely mentions a connector
// word stays intact.
package segment

import (
	"strings"

	"github.com/seijun/satomi/internal/satomi/extract"
	"github.com/seijun/satomi/internal/satomi/intent"
)

// connectors are the clause joiners checked in order; longer, more explicit
// joiners first so "and then" is not split at the bare "and".
var connectors = []string{
	" and then ", " y luego ", " et puis ",
	" and also ", " y también ", " et aussi ",
	" and ", " then ", "; ",
	" y ", " después ", " luego ",
	" et ", " puis ", " ensuite ",
}

// Segmenter splits compound utterances using the classifier's keyword
// lexicon to decide what counts as a wallet command.
type Segmenter struct {
	cls *intent.Classifier
}

// NewSegmenter returns a Segmenter backed by cls.
func NewSegmenter(cls *intent.Classifier) *Segmenter {
	return &Segmenter{cls: cls}
}

// SplitIfCompound returns the ordered segments of text.
//
// Steps: fast-exit when fewer than two wallet keywords are present anywhere;
// split on connector phrases only when both halves independently qualify;
// recursively split on sentence boundaries under the same rule; trim and
// clean; then prioritize — an action segment displaces every informational
// one (an in-flight money movement needs the whole turn), and among several
// conflicting action segments only the first is kept.
func (s *Segmenter) SplitIfCompound(text string) []string {
	norm := extract.Normalize(text)
	if norm == "" {
		return nil
	}

	if s.cls.KeywordCount(norm) < 2 {
		return []string{norm}
	}

	segments := s.split(norm)
	segments = cleanSegments(segments)
	if len(segments) <= 1 {
		return []string{norm}
	}
	return s.prioritize(segments)
}

// split recursively divides text at connectors and sentence boundaries,
// keeping a division only when both sides qualify as commands.
func (s *Segmenter) split(text string) []string {
	for _, conn := range connectors {
		idx := strings.Index(strings.ToLower(text), conn)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(text[:idx])
		right := strings.TrimSpace(text[idx+len(conn):])
		if s.cls.LooksLikeCommand(left) && s.cls.LooksLikeCommand(right) {
			return append(s.split(left), s.split(right)...)
		}
	}

	// Sentence boundaries under the same both-halves rule.
	for _, sep := range []string{". ", "? ", "! "} {
		idx := strings.Index(text, sep)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(text[:idx+1])
		right := strings.TrimSpace(text[idx+len(sep):])
		if s.cls.LooksLikeCommand(left) && s.cls.LooksLikeCommand(right) {
			return append(s.split(left), s.split(right)...)
		}
	}

	return []string{text}
}

// prioritize applies the action-over-informational rule and deduplicates
// conflicting actions.
func (s *Segmenter) prioritize(segments []string) []string {
	var actions, informational []string
	for _, seg := range segments {
		if s.cls.ContainsActionKeyword(seg) {
			actions = append(actions, seg)
		} else {
			informational = append(informational, seg)
		}
	}

	if len(actions) == 0 {
		return informational
	}

	// Keep the first of any conflicting action pair (send + receive in one
	// breath cannot both proceed); distinct actions may coexist.
	kept := actions[:1]
	seen := map[intent.Kind]bool{s.cls.ActionKind(actions[0]): true}
	for _, seg := range actions[1:] {
		kind := s.cls.ActionKind(seg)
		if conflictsWithSend(seen, kind) || seen[kind] {
			continue
		}
		seen[kind] = true
		kept = append(kept, seg)
	}
	return kept
}

// conflictsWithSend reports whether kind cannot share a turn with an
// already-kept money-movement action.
func conflictsWithSend(seen map[intent.Kind]bool, kind intent.Kind) bool {
	movement := func(k intent.Kind) bool {
		return k == intent.KindSend || k == intent.KindReceive || k == intent.KindBumpFee
	}
	if !movement(kind) {
		return false
	}
	for k := range seen {
		if movement(k) {
			return true
		}
	}
	return false
}

func cleanSegments(segments []string) []string {
	var out []string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		seg = strings.Trim(seg, ",;")
		seg = strings.TrimSpace(seg)
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
