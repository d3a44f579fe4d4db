package views

import (
	"strings"
	"unicode/utf8"
)

// sanitizeForTerminal removes codepoints that tcell cannot lay out
// predictably: skin tone modifiers, zero width joiners, variation selectors
// and C0/C1 control characters other than newline and tab. Tabs become a
// single space.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '\t':
			b.WriteByte(' ')
		case r == utf8.RuneError && size == 1:
		case isProblematicRune(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// singleLine collapses s onto one line for list cells and titles.
func singleLine(s string) string {
	return strings.Join(strings.Fields(sanitizeForTerminal(s)), " ")
}

func isProblematicRune(r rune) bool {
	switch {
	// Skin tone modifiers.
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	// Zero Width Joiner.
	case r == 0x200D:
		return true
	// Variation Selectors.
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	// Variation Selectors Supplement.
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	case r == '\n':
		return false
	case r < 0x20 || (r >= 0x7F && r < 0xA0):
		return true
	default:
		return false
	}
}
