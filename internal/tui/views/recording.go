package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// RecordingOverlay shows the elapsed time of a voice note.
type RecordingOverlay struct {
	*tview.TextView
	theme *ui.Theme
}

// NewRecordingOverlay creates the recording overlay.
func NewRecordingOverlay(theme *ui.Theme) *RecordingOverlay {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.RecordingColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTitle(" Voice note ")
	tv.SetTitleColor(theme.RecordingColor)
	return &RecordingOverlay{TextView: tv, theme: theme}
}

// Name implements Component.
func (r *RecordingOverlay) Name() string { return "Recording" }

// Hints implements Component.
func (r *RecordingOverlay) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// Update renders the elapsed time against the limit.
func (r *RecordingOverlay) Update(elapsed, limit time.Duration) {
	r.Clear()
	_, _ = fmt.Fprintf(r, "\n[%s::b]● REC[-:-:-]  %s / %s\n\n[%s]Enter send · Esc cancel[-]",
		ui.ColorName(r.theme.RecordingColor), FormatClock(elapsed), FormatClock(limit),
		ui.ColorName(r.theme.MutedColor))
}

// FormatClock renders d as m:ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
