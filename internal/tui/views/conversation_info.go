package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationHeader is the two-line summary above the thread.
type ConversationHeader struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationHeader creates the thread header.
func NewConversationHeader(theme *ui.Theme) *ConversationHeader {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)
	return &ConversationHeader{TextView: tv, theme: theme}
}

// Update renders the header for c. manual is the operator control flag.
func (h *ConversationHeader) Update(c store.Conversation, manual bool) {
	h.Clear()
	fg := ui.ColorName(h.theme.FgColor)
	muted := ui.ColorName(h.theme.MutedColor)

	name := c.Name
	if name == "" {
		name = c.Phone
	}
	line := fmt.Sprintf("[%s::b][%s][-:-:-] [%s::b]%s[-:-:-] [%s]%s · %s[-]",
		ui.ColorName(h.theme.TitleColor), Avatar(c),
		fg, tview.Escape(singleLine(name)),
		muted, tview.Escape(c.Phone), tview.Escape(c.Source))
	if c.Typing {
		line += " [" + ui.ColorName(h.theme.NewColor) + "]typing…[-]"
	}

	_, _ = fmt.Fprintf(h, "%s\n%s %s %s", line,
		interviewLabel(c, h.theme), controlLabel(manual, h.theme), TagChips(c.Tags, h.theme))
}

// ConversationInfo is the details page, including a QR code that opens the
// contact on a phone.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders conversation details.
func (ci *ConversationInfo) Update(c store.Conversation, manual bool) {
	ci.Clear()
	if c.ID == "" {
		return
	}

	fg := ui.ColorName(ci.theme.FgColor)
	ct := ui.ColorName(ci.theme.CounterColor)

	last := "-"
	if m, ok := c.LastMessage(); ok {
		last = fmt.Sprintf("%s #%d", m.Label(), m.ID)
	}
	tags := "-"
	if len(c.Tags) > 0 {
		tags = TagChips(c.Tags, ci.theme)
	}

	_, _ = fmt.Fprintf(ci,
		"\n [%s::b]Name:[-:-:-]      [%s]%s[-]\n"+
			" [%s::b]Phone:[-:-:-]     [%s]%s[-]\n"+
			" [%s::b]Source:[-:-:-]    [%s]%s[-]\n"+
			" [%s::b]Interview:[-:-:-] %s\n"+
			" [%s::b]Control:[-:-:-]   %s\n"+
			" [%s::b]Messages:[-:-:-]  [%s]%d[-]\n"+
			" [%s::b]Unread:[-:-:-]    [%s]%d[-]\n"+
			" [%s::b]Last:[-:-:-]      [%s]%s[-]\n"+
			" [%s::b]Tags:[-:-:-]      %s\n",
		fg, ct, tview.Escape(singleLine(c.Name)),
		fg, ct, tview.Escape(c.Phone),
		fg, ct, tview.Escape(c.Source),
		fg, interviewLabel(c, ci.theme),
		fg, controlLabel(manual, ci.theme),
		fg, ct, len(c.Messages),
		fg, ct, c.Unread,
		fg, ct, last,
		fg, tags,
	)

	if link := contactLink(c.Phone); link != "" {
		_, _ = fmt.Fprintf(ci, "\n [%s]%s[-]\n\n%s", ct, link, renderQR(link))
	}
	ci.ScrollToBeginning()
	ci.SetTitle(fmt.Sprintf(" %s Details ", tview.Escape(singleLine(c.Name))))
}

// TagChips renders tags as colored chips.
func TagChips(tags []string, theme *ui.Theme) string {
	chips := make([]string, 0, len(tags))
	for _, t := range tags {
		chips = append(chips, fmt.Sprintf("[%s:%s] %s [-:-]",
			ui.ColorName(theme.TagFg), ui.ColorName(theme.TagBg), tview.Escape(singleLine(t))))
	}
	return strings.Join(chips, " ")
}

func interviewLabel(c store.Conversation, theme *ui.Theme) string {
	if c.NeedsAttention {
		return "[" + ui.ColorName(theme.AttentionColor) + "::b]! needs attention[-:-:-]"
	}
	return "[" + ui.ColorName(theme.LiveColor) + "]interview done[-]"
}

func controlLabel(manual bool, theme *ui.Theme) string {
	if manual {
		return "[" + ui.ColorName(theme.OperatorColor) + "::b]operator in control[-:-:-]"
	}
	return "[" + ui.ColorName(theme.MutedColor) + "]assistant replying[-]"
}
