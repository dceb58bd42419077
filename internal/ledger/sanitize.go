// internal/ledger/sanitize.go
package ledger

import "strings"

// "Smart" punctuation and invisible characters that have historically
// broken ledger storage and downstream rendering. Everything maps to an
// ASCII-safe equivalent; zero-width characters are dropped outright.
var punctReplacer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", "'",
	"‛", "'",
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"„", `"`,
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-",
	"…", "...", // ellipsis
	"•", "-", // bullet
	"·", "-", // middle dot
	" ", " ", // non-breaking space
	"​", "", // zero-width space
	"‌", "", // zero-width non-joiner
	"‍", "", // zero-width joiner
	"\uFEFF", "", // BOM
	";", ",", // reserved as the field separator
)

// Sanitize normalizes free text before it is stored in the ledger or
// returned to a caller. Semicolons are remapped because they delimit
// ledger fields. Whitespace runs collapse to a single space.
func Sanitize(s string) string {
	s = punctReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
