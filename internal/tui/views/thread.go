package views

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// ThreadOptions tunes thread rendering.
type ThreadOptions struct {
	// VirtualizeAbove is the message count above which only messages near
	// the visible region are formatted.
	VirtualizeAbove int
	// Overscan is the number of messages formatted beyond each edge of the
	// visible region when virtualized.
	Overscan int
	// Threads with RevealMin..RevealMax messages are revealed one message
	// per RevealStep when opened.
	RevealMin  int
	RevealMax  int
	RevealStep time.Duration
}

// Window returns the half-open range of message indices to format when first
// is the index of the first visible message and visible messages fit on
// screen. first may be negative when the view is anchored past the top.
func Window(total, first, visible, overscan int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	start = max(first-overscan, 0)
	end = min(first+visible+overscan, total)
	if start > end {
		start = end
	}
	return start, end
}

type formatKey struct {
	id       int64
	origin   store.Origin
	text     string
	audio    bool
	playable bool
	playing  bool
	width    int
	ts       time.Time
}

type formatted struct {
	key   formatKey
	lines []string
}

// Thread draws the messages of one conversation anchored to the bottom edge.
// Scrolling moves whole messages. While the newest message is in view the
// thread follows new arrivals; otherwise they are counted and announced at
// the bottom.
type Thread struct {
	*tview.Box
	theme *ui.Theme
	opts  ThreadOptions

	// queue runs fn on the UI loop; schedule calls fn after d.
	queue    func(fn func())
	schedule func(d time.Duration, fn func())

	convID   string
	msgs     []store.Message
	playing  string
	bottom   int // index of the message drawn on the last row
	selected int // -1 when nothing is selected
	follow   bool
	unseen   int
	lastTop  int

	revealMu  sync.Mutex
	revealed  int
	revealGen int
	revealing bool

	cache       map[int]formatted
	formatCalls int
}

// NewThread creates an empty thread view.
func NewThread(theme *ui.Theme, opts ThreadOptions) *Thread {
	box := tview.NewBox()
	box.SetBorder(true)
	box.SetBorderColor(theme.BorderColor)
	box.SetBackgroundColor(theme.BgColor)
	box.SetTitleColor(theme.TitleColor)
	box.SetTitle(" Messages ")

	return &Thread{
		Box:      box,
		theme:    theme,
		opts:     opts,
		queue:    func(fn func()) { fn() },
		schedule: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		selected: -1,
		follow:   true,
		cache:    make(map[int]formatted),
	}
}

// Name implements Component.
func (t *Thread) Name() string { return "Thread" }

// Hints implements Component.
func (t *Thread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "c", Description: "Control"},
		{Key: "R", Description: "Record"},
		{Key: "1-9", Description: "Quick reply", Numeric: true},
		{Key: "j/k", Description: "Select"},
		{Key: "p", Description: "Play"},
		{Key: "x", Description: "Stop audio"},
		{Key: "G", Description: "Latest"},
		{Key: "d", Description: "Details"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetQueue sets the function used to run reveal steps on the UI loop.
func (t *Thread) SetQueue(fn func(fn func())) {
	t.queue = fn
}

// SetMessages shows msgs for the conversation convID. Switching conversation
// resets scrolling and selection and may start the entrance reveal.
func (t *Thread) SetMessages(convID string, msgs []store.Message, playing string) {
	sorted := store.SortMessages(msgs)
	t.playing = playing

	if convID != t.convID {
		t.convID = convID
		t.msgs = sorted
		t.cache = make(map[int]formatted)
		t.selected = -1
		t.follow = true
		t.unseen = 0
		t.bottom = len(sorted) - 1
		t.startReveal(len(sorted))
		return
	}

	added := len(sorted) - len(t.msgs)
	t.msgs = sorted
	t.revealMu.Lock()
	if !t.revealing {
		t.revealed = len(sorted)
	}
	t.revealMu.Unlock()
	switch {
	case t.follow:
		t.bottom = len(sorted) - 1
	case added > 0:
		t.unseen += added
	}
	t.clamp()
}

func (t *Thread) startReveal(n int) {
	t.revealMu.Lock()
	t.revealGen++
	gen := t.revealGen
	reveal := t.opts.RevealStep > 0 && n >= t.opts.RevealMin && n <= t.opts.RevealMax && n > 0
	t.revealing = reveal
	if reveal {
		t.revealed = 1
	} else {
		t.revealed = n
	}
	t.revealMu.Unlock()
	if reveal {
		t.schedule(t.opts.RevealStep, func() { t.queue(func() { t.revealStep(gen) }) })
	}
}

func (t *Thread) revealStep(gen int) {
	t.revealMu.Lock()
	if gen != t.revealGen {
		t.revealMu.Unlock()
		return
	}
	t.revealed = min(t.revealed+1, len(t.msgs))
	more := t.revealed < len(t.msgs)
	t.revealing = more
	t.revealMu.Unlock()
	if more {
		t.schedule(t.opts.RevealStep, func() { t.queue(func() { t.revealStep(gen) }) })
	}
}

// Revealed returns how many messages are currently shown by the entrance
// reveal.
func (t *Thread) Revealed() int {
	t.revealMu.Lock()
	defer t.revealMu.Unlock()
	return min(t.revealed, len(t.msgs))
}

// Following reports whether new messages keep the view pinned to the bottom.
func (t *Thread) Following() bool { return t.follow }

// Unseen returns the number of messages that arrived while scrolled away.
func (t *Thread) Unseen() int { return t.unseen }

// FormatCalls returns how many times a message has been formatted.
func (t *Thread) FormatCalls() int { return t.formatCalls }

// Virtualized reports whether only messages near the viewport are formatted.
func (t *Thread) Virtualized() bool {
	return t.opts.VirtualizeAbove > 0 && len(t.msgs) > t.opts.VirtualizeAbove
}

// Selected returns the selected message. Without a selection the newest
// audio message is returned so playback works without moving the cursor.
func (t *Thread) Selected() (store.Message, bool) {
	if t.selected >= 0 && t.selected < len(t.msgs) {
		return t.msgs[t.selected], true
	}
	for i := len(t.msgs) - 1; i >= 0; i-- {
		if t.msgs[i].IsAudio {
			return t.msgs[i], true
		}
	}
	return store.Message{}, false
}

// MoveSelection moves the selection by delta messages, scrolling as needed.
func (t *Thread) MoveSelection(delta int) {
	if len(t.msgs) == 0 {
		return
	}
	if t.selected < 0 {
		t.selected = t.bottom
		if delta < 0 {
			delta++
		}
	}
	t.selected = min(max(t.selected+delta, 0), len(t.msgs)-1)
	if t.selected > t.bottom {
		t.bottom = t.selected
	}
	if t.selected < t.lastTop {
		t.bottom -= t.lastTop - t.selected
	}
	t.clamp()
	t.updateFollow()
}

// Scroll moves the bottom anchor by delta messages.
func (t *Thread) Scroll(delta int) {
	t.bottom += delta
	t.clamp()
	t.updateFollow()
}

// ScrollToTop shows the oldest messages.
func (t *Thread) ScrollToTop() {
	t.bottom = 0
	t.selected = -1
	t.clamp()
	t.updateFollow()
}

// ScrollToBottom jumps to the newest message and resumes following.
func (t *Thread) ScrollToBottom() {
	t.bottom = len(t.msgs) - 1
	t.selected = -1
	t.updateFollow()
}

// ClearSelection drops the selection without scrolling.
func (t *Thread) ClearSelection() {
	t.selected = -1
}

func (t *Thread) clamp() {
	if len(t.msgs) == 0 {
		t.bottom = -1
		t.selected = -1
		return
	}
	t.bottom = min(max(t.bottom, 0), len(t.msgs)-1)
	if t.selected >= len(t.msgs) {
		t.selected = len(t.msgs) - 1
	}
}

func (t *Thread) updateFollow() {
	t.follow = len(t.msgs) == 0 || t.bottom == len(t.msgs)-1
	if t.follow {
		t.unseen = 0
	}
}

// InputHandler handles thread navigation keys.
func (t *Thread) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return t.WrapInputHandler(func(event *tcell.EventKey, _ func(p tview.Primitive)) {
		_, _, _, height := t.GetInnerRect()
		page := max(height/3, 1)
		switch event.Key() {
		case tcell.KeyUp:
			t.MoveSelection(-1)
		case tcell.KeyDown:
			t.MoveSelection(1)
		case tcell.KeyPgUp:
			t.Scroll(-page)
		case tcell.KeyPgDn:
			t.Scroll(page)
		case tcell.KeyHome:
			t.ScrollToTop()
		case tcell.KeyEnd:
			t.ScrollToBottom()
		case tcell.KeyRune:
			switch event.Rune() {
			case 'k':
				t.MoveSelection(-1)
			case 'j':
				t.MoveSelection(1)
			case 'g':
				t.ScrollToTop()
			case 'G':
				t.ScrollToBottom()
			}
		}
	})
}

// MouseHandler scrolls with the wheel.
func (t *Thread) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return t.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		x, y := event.Position()
		if !t.InRect(x, y) {
			return false, nil
		}
		switch action {
		case tview.MouseScrollUp:
			t.Scroll(-1)
			return true, nil
		case tview.MouseScrollDown:
			t.Scroll(1)
			return true, nil
		case tview.MouseLeftClick:
			setFocus(t)
			return true, nil
		}
		return false, nil
	})
}

// Draw renders the visible messages bottom-up.
func (t *Thread) Draw(screen tcell.Screen) {
	t.DrawForSubclass(screen, t)
	x, y, width, height := t.GetInnerRect()
	if width <= 2 || height <= 0 {
		return
	}

	muted := ui.ColorName(t.theme.MutedColor)
	if t.convID == "" {
		tview.Print(screen, "["+muted+"]Select a conversation[-]", x, y+height/2, width, tview.AlignCenter, t.theme.FgColor)
		return
	}
	count := t.Revealed()
	if count == 0 {
		tview.Print(screen, "["+muted+"]No messages yet[-]", x, y+height/2, width, tview.AlignCenter, t.theme.FgColor)
		return
	}

	rows := height
	if t.unseen > 0 {
		rows--
		label := fmt.Sprintf("[%s:%s:b] ↓ %d new message%s (G to jump) [-:-:-]",
			ui.ColorName(t.theme.TableCursorFg), ui.ColorName(t.theme.NewColor), t.unseen, plural(t.unseen))
		tview.Print(screen, label, x, y+height-1, width, tview.AlignCenter, t.theme.FgColor)
	}

	bottom := t.bottom
	if count < len(t.msgs) {
		bottom = count - 1
	}
	bottom = min(max(bottom, 0), count-1)
	textWidth := width - 2

	if t.Virtualized() {
		// A message takes at least two rows: header and body.
		visible := rows/2 + 1
		start, end := Window(count, bottom-visible+1, visible, t.opts.Overscan)
		for i := range t.cache {
			if i < start || i >= end {
				delete(t.cache, i)
			}
		}
		for i := start; i < end; i++ {
			t.lines(i, textWidth)
		}
	} else {
		for i := range count {
			t.lines(i, textWidth)
		}
	}

	row := y + rows - 1
	top := bottom
	for i := bottom; i >= 0 && row >= y; i-- {
		lines := t.lines(i, textWidth)
		marker := " "
		if i == t.selected {
			marker = "[" + ui.ColorName(t.theme.BorderFocusColor) + "]▌[-]"
		}
		for j := len(lines) - 1; j >= 0 && row >= y; j-- {
			tview.Print(screen, marker, x, row, 1, tview.AlignLeft, t.theme.FgColor)
			tview.Print(screen, lines[j], x+2, row, textWidth, tview.AlignLeft, t.theme.FgColor)
			row--
		}
		top = i
		row-- // gap between messages
	}
	t.lastTop = top
}

// lines returns the formatted lines for message i, formatting on a cache
// miss.
func (t *Thread) lines(i, width int) []string {
	m := t.msgs[i]
	key := formatKey{
		id:       m.ID,
		origin:   m.Origin,
		text:     m.Text,
		audio:    m.IsAudio,
		playable: m.Audio != nil,
		playing:  m.Audio != nil && m.Audio.ID == t.playing,
		width:    width,
		ts:       m.Timestamp,
	}
	if f, ok := t.cache[i]; ok && f.key == key {
		return f.lines
	}
	t.formatCalls++
	lines := formatMessage(m, key.playing, width, t.theme)
	t.cache[i] = formatted{key: key, lines: lines}
	return lines
}

// formatMessage renders a message as a header line followed by its wrapped
// body.
func formatMessage(m store.Message, playing bool, width int, theme *ui.Theme) []string {
	muted := ui.ColorName(theme.MutedColor)
	arrow := "←"
	if m.Origin.Outgoing() {
		arrow = "→"
	}
	header := fmt.Sprintf("[%s::b]%s %s[-:-:-] [%s]#%d", m.Color(), arrow, m.Label(), muted, m.ID)
	if !m.Timestamp.IsZero() {
		header += " " + m.Timestamp.Local().Format("02/01 15:04")
	}
	header += "[-]"

	if m.IsAudio {
		text := m.Text
		if text == "" {
			text = "Voice message"
		}
		body := "♪ " + singleLine(text)
		switch {
		case playing:
			body = "■ playing, p to stop"
		case m.Audio == nil:
			body += " (unavailable)"
		default:
			body += fmt.Sprintf(" (%s, p to play)", m.Audio.Format)
		}
		color := ui.ColorName(theme.FgColor)
		if playing {
			color = ui.ColorName(theme.LiveColor)
		}
		return []string{header, "[" + color + "]" + tview.Escape(body) + "[-]"}
	}

	out := []string{header}
	for _, l := range Wrap(sanitizeForTerminal(m.Text), width) {
		out = append(out, tview.Escape(l))
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
