package intent

// Strength is the coarse match-strength tier assigned by the classifier.
// Confidence is tiered, not continuous: every category maps its matches
// through this single enumeration instead of scattering numeric literals.
type Strength int

const (
	// StrengthWeak covers fuzzy keyword hits and loose contextual matches.
	StrengthWeak Strength = iota
	// StrengthStrong covers trigger phrases and distinctive regex structures.
	StrengthStrong
	// StrengthExact covers exact keyword-token hits.
	StrengthExact
)

// Confidence maps the tier to its numeric value once, centrally.
func (s Strength) Confidence() float64 {
	switch s {
	case StrengthExact:
		return 0.95
	case StrengthStrong:
		return 0.85
	default:
		return 0.70
	}
}

func (s Strength) String() string {
	switch s {
	case StrengthExact:
		return "exact"
	case StrengthStrong:
		return "strong"
	default:
		return "weak"
	}
}

// newAddressEdge is the small boost that keeps an explicit "new address"
// request ranked above a generic "receive" match whenever both categories
// fire, regardless of which tier each one hit.
const newAddressEdge = 0.02

// Score is one ranked classification outcome. Provenance records which
// pattern produced the match so results stay explainable.
type Score struct {
	Intent     Intent
	Confidence float64
	Provenance string
}
