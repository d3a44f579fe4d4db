package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays profile, connection, control mode and list filter.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	profile string
	now     func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme, profile string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme, profile: profile, now: time.Now}
}

// Update renders the bar from a state snapshot.
func (sb *StatusBar) Update(st store.State) {
	sb.Clear()
	_, _ = fmt.Fprint(sb, sb.line(st))
}

func (sb *StatusBar) line(st store.State) string {
	conn := st.Connection
	if conn == "" {
		conn = "idle"
	}
	connColor := ui.ColorName(sb.theme.OfflineColor)
	if conn == "live" {
		connColor = ui.ColorName(sb.theme.LiveColor)
	}

	mode, modeColor := "bot", ui.ColorName(sb.theme.FgColor)
	if st.ManualMode {
		mode, modeColor = "operator", ui.ColorName(sb.theme.OperatorColor)
	}

	filter := st.Filter
	if filter == "" {
		filter = store.FilterAll
	}

	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-] | [%s::b]%s[-:-:-] | filter:%s",
		tview.Escape(sb.profile), connColor, conn, modeColor, mode, filter)
	if st.SearchQuery != "" {
		line += " | search:" + tview.Escape(singleLine(st.SearchQuery))
	}
	if st.Recording {
		line += " | [" + ui.ColorName(sb.theme.RecordingColor) + "::b]● rec[-:-:-]"
	}
	if st.Playing != "" {
		line += " | ♪"
	}
	return line + " | " + sb.now().Format("15:04")
}
