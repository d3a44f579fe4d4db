package views

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Wrap breaks text into lines no wider than width terminal cells. Words are
// kept whole unless a single word is wider than the line. Explicit newlines
// are preserved and an empty text yields one empty line.
func Wrap(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		out = append(out, wrapParagraph(para, width)...)
	}
	return out
}

func wrapParagraph(para string, width int) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	var (
		lines []string
		line  strings.Builder
		used  int
	)
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		used = 0
	}
	for _, w := range words {
		ww := uniseg.StringWidth(w)
		if used > 0 && used+1+ww <= width {
			line.WriteByte(' ')
			line.WriteString(w)
			used += 1 + ww
			continue
		}
		if used > 0 {
			flush()
		}
		if ww <= width {
			line.WriteString(w)
			used = ww
			continue
		}
		// Hard-break a word wider than the line on grapheme boundaries.
		g := uniseg.NewGraphemes(w)
		for g.Next() {
			cw := g.Width()
			if used > 0 && used+cw > width {
				flush()
			}
			line.WriteString(g.Str())
			used += cw
		}
	}
	if used > 0 || line.Len() > 0 {
		flush()
	}
	return lines
}
