package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// menuRows is the number of hints stacked per column.
const menuRows = 5

// Menu displays keyboard shortcut hints in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints column by column, menuRows per column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, strings.Join(LayoutHints(hints, menuRows, m.theme), "\n"))
}

// LayoutHints arranges hints into rows lines, filling columns top to bottom.
func LayoutHints(hints []MenuHint, rows int, theme *Theme) []string {
	if rows <= 0 || len(hints) == 0 {
		return nil
	}
	keyColor := ColorName(theme.MenuKeyColor)
	numColor := ColorName(theme.NumericKeyColor)

	cols := (len(hints) + rows - 1) / rows
	widths := make([]int, cols)
	for i, h := range hints {
		if w := len(h.Key) + len(h.Description) + 4; w > widths[i/rows] {
			widths[i/rows] = w
		}
	}

	lines := make([]string, min(rows, len(hints)))
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		cell := fmt.Sprintf("[%s::b]<%s>[-:-:-] %s", kc, h.Key, h.Description)
		pad := widths[i/rows] - (len(h.Key) + len(h.Description) + 3)
		lines[i%rows] += cell + strings.Repeat(" ", max(pad, 1))
	}
	return lines
}
