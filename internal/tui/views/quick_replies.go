package views

import (
	"fmt"

	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// QuickReplies lists the canned replies; 1-9 send one.
type QuickReplies struct {
	*tview.TextView
	theme *ui.Theme
}

// NewQuickReplies creates the quick reply strip.
func NewQuickReplies(theme *ui.Theme, replies []string) *QuickReplies {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	q := &QuickReplies{TextView: tv, theme: theme}
	q.Update(replies)
	return q
}

// Update renders replies, numbering the first nine.
func (q *QuickReplies) Update(replies []string) {
	q.Clear()
	num := ui.ColorName(q.theme.NumericKeyColor)
	fg := ui.ColorName(q.theme.FgColor)
	for i, r := range replies {
		if i == 9 {
			break
		}
		_, _ = fmt.Fprintf(q, "[%s::b]<%d>[-:-:-] [%s]%s[-]  ", num, i+1, fg, tview.Escape(singleLine(r)))
	}
}
