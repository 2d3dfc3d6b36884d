package resolve

import (
	"strings"
	"unicode/utf8"
)

// FactLimit bounds the text payload of one resolved fact.
const FactLimit = 200

// Compact collapses whitespace and truncates at a word boundary, stripping
// dangling punctuation from the cut point. The cut never splits a rune, so
// the result is valid UTF-8 even for unspaced non-Latin input.
func Compact(text string, limit int) string {
	if text == "" {
		return ""
	}

	cleaned := strings.Join(strings.Fields(text), " ")
	if limit <= 0 || len(cleaned) <= limit {
		return cleaned
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}

	truncated := cleaned[:cut]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}

	return strings.TrimRight(truncated, ",.;- ")
}
