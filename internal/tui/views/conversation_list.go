package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// maxTagSummary caps the tag column.
const maxTagSummary = 3

// ConversationList is the main conversation table.
type ConversationList struct {
	*tview.Table
	theme *ui.Theme
	convs []store.Conversation
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Search"},
		{Key: "f", Description: "Filter"},
		{Key: "r", Description: "Reload"},
		{Key: "c", Description: "Control"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
		{Key: "q", Description: "Quit"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update re-renders the table from a state snapshot.
func (cl *ConversationList) Update(st store.State) {
	selected := cl.SelectedConversation()
	cl.convs = st.Filtered()
	cl.render(st)
	cl.reselect(selected)
}

func (cl *ConversationList) render(st store.State) {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{"", 0},
		{" NAME", 2},
		{" PHONE", 1},
		{" MSGS", 0},
		{" TAGS", 1},
		{" ", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cl.SetCell(0, col, cell)
	}

	switch {
	case st.Loading && len(st.Conversations) == 0:
		cl.placeholder("Loading conversations…")
	case len(cl.convs) == 0 && len(st.Conversations) == 0:
		cl.placeholder("No conversations")
	case len(cl.convs) == 0:
		cl.placeholder("No conversations match the current search or filter")
	}

	for i, c := range cl.convs {
		row := i + 1
		fg := cl.theme.FgColor
		name := c.Name
		if name == "" {
			name = c.Phone
		}
		if c.ID == st.ActiveID {
			name = "● " + name
		}
		if c.Typing {
			name += " …"
		}
		cl.SetCell(row, 0, tview.NewTableCell(" "+Avatar(c)).SetTextColor(cl.theme.TitleColor).SetAttributes(tcell.AttrBold))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(singleLine(name))).SetExpansion(2).SetTextColor(fg))
		cl.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(c.Phone)).SetExpansion(1).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(row, 3, tview.NewTableCell(strconv.Itoa(len(c.Messages))).SetAlign(tview.AlignRight).SetTextColor(fg))
		cl.SetCell(row, 4, tview.NewTableCell(" "+tview.Escape(TagSummary(c.Tags, maxTagSummary))).SetExpansion(1).SetTextColor(cl.theme.MutedColor))
		text, color := Badge(c)
		cl.SetCell(row, 5, tview.NewTableCell(text+" ").SetAlign(tview.AlignRight).SetTextColor(cl.badgeColor(color)).SetAttributes(tcell.AttrBold))
	}

	title := fmt.Sprintf(" Conversations (%d) ", len(st.Conversations))
	if st.SearchQuery != "" || (st.Filter != "" && st.Filter != store.FilterAll) {
		title = fmt.Sprintf(" Conversations (%d/%d) ", len(cl.convs), len(st.Conversations))
	}
	cl.SetTitle(title)
}

func (cl *ConversationList) placeholder(text string) {
	cl.SetCell(1, 1, tview.NewTableCell(" "+text).
		SetSelectable(false).
		SetTextColor(cl.theme.MutedColor).
		SetExpansion(2))
}

func (cl *ConversationList) reselect(id string) {
	if len(cl.convs) == 0 {
		return
	}
	row := 1
	for i, c := range cl.convs {
		if c.ID == id {
			row = i + 1
			break
		}
	}
	cl.Select(row, 0)
}

// SelectedConversation returns the ID under the cursor, or empty.
func (cl *ConversationList) SelectedConversation() string {
	row, _ := cl.GetSelection()
	return cl.ConversationAt(row)
}

// ConversationAt returns the ID shown on table row (1-based, header is 0).
func (cl *ConversationList) ConversationAt(row int) string {
	if row < 1 || row > len(cl.convs) {
		return ""
	}
	return cl.convs[row-1].ID
}

// BadgeKind selects the badge color.
type BadgeKind int

const (
	BadgeNone BadgeKind = iota
	BadgeUnread
	BadgeAttention
	BadgeNew
)

// Badge returns the list badge for a conversation: the unread count, else
// "!" when it needs attention, else "new" for conversations created live.
func Badge(c store.Conversation) (string, BadgeKind) {
	switch {
	case c.Unread > 0:
		if c.Unread > 99 {
			return "99+", BadgeUnread
		}
		return strconv.Itoa(c.Unread), BadgeUnread
	case c.NeedsAttention:
		return "!", BadgeAttention
	case c.New:
		return "new", BadgeNew
	}
	return "", BadgeNone
}

func (cl *ConversationList) badgeColor(k BadgeKind) tcell.Color {
	switch k {
	case BadgeUnread:
		return cl.theme.UnreadColor
	case BadgeAttention:
		return cl.theme.AttentionColor
	case BadgeNew:
		return cl.theme.NewColor
	}
	return cl.theme.FgColor
}

// Avatar returns the two-cell initials block for a conversation.
func Avatar(c store.Conversation) string {
	initials := c.Initials
	if initials == "" {
		initials = store.Initials(c.Name)
	}
	if initials == "" {
		initials = "#"
	}
	return fmt.Sprintf("%-2s", initials)
}

// TagSummary joins up to limit tags and counts the rest.
func TagSummary(tags []string, limit int) string {
	if len(tags) <= limit {
		return strings.Join(tags, ", ")
	}
	return fmt.Sprintf("%s +%d", strings.Join(tags[:limit], ", "), len(tags)-limit)
}
