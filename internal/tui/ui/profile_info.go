package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// ProfileData holds the header summary.
type ProfileData struct {
	Profile       string
	BaseURL       string
	Connection    string
	ManualMode    bool
	Conversations int
	Unread        int
	Uptime        time.Duration
}

// ProfileInfo displays profile and session metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the profile info.
func (pi *ProfileInfo) Update(data ProfileData) {
	pi.Clear()

	fg := ColorName(pi.theme.FgColor)
	counter := ColorName(pi.theme.CounterColor)

	conn := ColorName(pi.theme.OfflineColor)
	if data.Connection == "live" {
		conn = ColorName(pi.theme.LiveColor)
	}
	mode, modeColor := "assistant", counter
	if data.ManualMode {
		mode, modeColor = "operator", ColorName(pi.theme.OperatorColor)
	}

	_, _ = fmt.Fprintf(pi,
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Backend:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Live:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Control:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d[-] [%s](%d unread)[-]\n"+
			"[%s::b]Uptime:[-:-:-]  [%s]%s[-]",
		fg, counter, tview.Escape(data.Profile),
		fg, counter, tview.Escape(data.BaseURL),
		fg, conn, orDash(data.Connection),
		fg, modeColor, mode,
		fg, counter, data.Conversations, fg, data.Unread,
		fg, counter, FormatUptime(data.Uptime),
	)
}

// FormatUptime renders d as "2h5m" or "7m".
func FormatUptime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
