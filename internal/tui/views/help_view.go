package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"/", "Search name, tag or phone"},
		{"f", "Cycle filter (all, unread, attention)"},
		{"r", "Reload conversations"},
		{"c", "Take or release control"},
		{"?", "Help"},
		{"Esc", "Cancel / Go back"},
		{"q", "Quit"},
	}},
	{"Conversation List", [][2]string{
		{"Enter", "Open conversation"},
		{"1-9", "Open Nth conversation"},
		{"j/k", "Move"},
	}},
	{"Thread", [][2]string{
		{"i", "Focus composer (Enter sends)"},
		{"1-9", "Send quick reply"},
		{"R", "Record voice note (Enter sends, Esc cancels)"},
		{"j/k", "Select message"},
		{"p / Space", "Play or stop selected audio"},
		{"x", "Stop audio"},
		{"G / g", "Newest / oldest"},
		{"d", "Conversation details"},
	}},
	{"Commands (: mode)", [][2]string{
		{":refresh", "Reload conversations"},
		{":filter [all|unread|attention]", "Set or cycle the filter"},
		{":search <text>", "Search; empty clears"},
		{":control [on|off]", "Operator control"},
		{":release", "Give control back to the assistant"},
		{":reply <n>", "Send quick reply n"},
		{":record", "Record a voice note"},
		{":stop", "Stop audio"},
		{":help", "Show this help"},
		{":quit", "Quit"},
	}},
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		width := 0
		for _, r := range s.rows {
			width = max(width, len(r[0]))
		}
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%s[-:-:-]%s  %s\n", kc, tview.Escape(r[0]), strings.Repeat(" ", width-len(r[0])), r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
