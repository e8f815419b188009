package extract

import (
	"strings"

	"golang.org/x/text/width"
)

// punctFolds maps Unicode punctuation variants produced by phone keyboards
// and chat clients onto the ASCII forms the extraction patterns expect.
var punctFolds = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", "'",
	"“", `"`, // left double quote
	"”", `"`,
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis
	" ", " ", // no-break space
	"、", ",", // ideographic comma
	"，", ",", // full-width comma
	"؟", "?",
	"¿", "", // inverted question mark
	"¡", "", // inverted exclamation mark
)

// Normalize folds full-width characters to their narrow forms, replaces
// Unicode punctuation variants with ASCII equivalents, and collapses runs of
// whitespace into single spaces. Every extraction pattern in this package
// assumes its input has been through here.
func Normalize(text string) string {
	text = width.Narrow.String(text)
	text = punctFolds.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
