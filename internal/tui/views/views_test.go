package views

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/uniseg"
)

func messages(n int) []store.Message {
	out := make([]store.Message, n)
	for i := range out {
		out[i] = store.Message{ID: int64(i + 1), Origin: store.OriginClient, Text: fmt.Sprintf("message %d", i+1)}
	}
	return out
}

func newTestThread(opts ThreadOptions) *Thread {
	th := NewThread(ui.DefaultTheme(), opts)
	th.schedule = func(time.Duration, func()) {}
	return th
}

// draw renders th on a simulated screen and returns its text rows.
func draw(t *testing.T, th *Thread, w, h int) []string {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(w, h)
	th.SetRect(0, 0, w, h)
	th.Draw(screen)
	screen.Show()

	cells, cw, ch := screen.GetContents()
	rows := make([]string, ch)
	for y := range ch {
		var b strings.Builder
		for x := range cw {
			c := cells[y*cw+x]
			if len(c.Runes) == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(string(c.Runes))
		}
		rows[y] = b.String()
	}
	return rows
}

func TestWindow(t *testing.T) {
	tests := []struct {
		total, first, visible, overscan int
		start, end                      int
	}{
		{0, 0, 10, 5, 0, 0},
		{500, 480, 20, 10, 470, 500},
		{500, 200, 20, 10, 190, 230},
		{500, -5, 20, 10, 0, 25},
		{30, 0, 50, 10, 0, 30},
	}
	for _, tt := range tests {
		start, end := Window(tt.total, tt.first, tt.visible, tt.overscan)
		if start != tt.start || end != tt.end {
			t.Errorf("Window(%d,%d,%d,%d) = [%d,%d), want [%d,%d)",
				tt.total, tt.first, tt.visible, tt.overscan, start, end, tt.start, tt.end)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, []string{""}},
		{"hello world", 20, []string{"hello world"}},
		{"hello world", 5, []string{"hello", "world"}},
		{"one\n\ntwo", 10, []string{"one", "", "two"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"olá ñandú", 4, []string{"olá", "ñand", "ú"}},
	}
	for _, tt := range tests {
		if got := Wrap(tt.text, tt.width); !slices.Equal(got, tt.want) {
			t.Errorf("Wrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestWrapNeverExceedsWidth(t *testing.T) {
	text := "Hola 👋 necesito ayuda con mi pedido número 12345, llegó incompleto 📦📦📦"
	for width := 2; width < 30; width++ {
		for _, line := range Wrap(text, width) {
			if w := uniseg.StringWidth(line); w > width {
				t.Fatalf("width %d: line %q is %d cells", width, line, w)
			}
		}
	}
}

func TestBadge(t *testing.T) {
	tests := []struct {
		name string
		conv store.Conversation
		text string
		kind BadgeKind
	}{
		{"unread wins", store.Conversation{Unread: 3, NeedsAttention: true, New: true}, "3", BadgeUnread},
		{"capped", store.Conversation{Unread: 120}, "99+", BadgeUnread},
		{"attention", store.Conversation{NeedsAttention: true, New: true}, "!", BadgeAttention},
		{"new", store.Conversation{New: true}, "new", BadgeNew},
		{"none", store.Conversation{}, "", BadgeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, kind := Badge(tt.conv)
			if text != tt.text || kind != tt.kind {
				t.Errorf("Badge = %q/%d, want %q/%d", text, kind, tt.text, tt.kind)
			}
		})
	}
}

func TestTagSummary(t *testing.T) {
	if got := TagSummary([]string{"vip", "lead"}, 3); got != "vip, lead" {
		t.Errorf("got %q", got)
	}
	if got := TagSummary([]string{"a", "b", "c", "d", "e"}, 3); got != "a, b, c +2" {
		t.Errorf("got %q", got)
	}
}

func TestContactLink(t *testing.T) {
	if got := contactLink("+55 (11) 98765-4321"); got != "https://wa.me/5511987654321" {
		t.Errorf("got %q", got)
	}
	if got := contactLink("unknown"); got != "" {
		t.Errorf("got %q", got)
	}
	if qr := renderQR(contactLink("5511987654321")); !strings.Contains(qr, "█") {
		t.Error("QR has no modules")
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	tests := map[string]string{
		"👍🏻":         "👍",
		"a\tb":       "a b",
		"bell\x07":   "bell",
		"line\nnext": "line\nnext",
		"ok":         "ok",
	}
	for in, want := range tests {
		if got := sanitizeForTerminal(in); got != want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", in, got, want)
		}
	}
	if got := singleLine("  a \n b  "); got != "a b" {
		t.Errorf("singleLine = %q", got)
	}
}

func TestThreadShowsNewestAtBottom(t *testing.T) {
	th := newTestThread(ThreadOptions{VirtualizeAbove: 100, Overscan: 5})
	th.SetMessages("c1", []store.Message{
		{ID: 5, Origin: store.OriginAI, Text: "five"},
		{ID: 1, Origin: store.OriginClient, Text: "one"},
		{ID: 3, Origin: store.OriginOperator, Text: "three"},
	}, "")
	rows := draw(t, th, 40, 20)

	body := strings.Join(rows, "\n")
	one, three, five := strings.Index(body, "one"), strings.Index(body, "three"), strings.Index(body, "five")
	if one < 0 || three < 0 || five < 0 || !(one < three && three < five) {
		t.Fatalf("messages not in ID order:\n%s", body)
	}
	if !strings.Contains(rows[len(rows)-2], "five") {
		t.Fatalf("newest message not on the last row:\n%s", body)
	}
}

func TestThreadFormatsEverythingBelowThreshold(t *testing.T) {
	th := newTestThread(ThreadOptions{VirtualizeAbove: 100, Overscan: 5})
	th.SetMessages("c1", messages(80), "")
	draw(t, th, 60, 20)
	if th.Virtualized() {
		t.Fatal("80 messages should not be virtualized")
	}
	if got := th.FormatCalls(); got != 80 {
		t.Fatalf("FormatCalls = %d, want 80", got)
	}
	draw(t, th, 60, 20)
	if got := th.FormatCalls(); got != 80 {
		t.Fatalf("redraw reformatted: %d calls", got)
	}
}

func TestThreadVirtualizesLongThreads(t *testing.T) {
	th := newTestThread(ThreadOptions{VirtualizeAbove: 100, Overscan: 10})
	th.SetMessages("c1", messages(500), "")
	rows := draw(t, th, 60, 20)
	if !th.Virtualized() {
		t.Fatal("500 messages should be virtualized")
	}
	first := th.FormatCalls()
	if first == 0 || first > 40 {
		t.Fatalf("FormatCalls = %d, want a window well under 500", first)
	}
	if !strings.Contains(strings.Join(rows, "\n"), "message 500") {
		t.Fatal("newest message not drawn")
	}

	th.Scroll(-200)
	rows = draw(t, th, 60, 20)
	if th.Following() {
		t.Fatal("still following after scrolling up")
	}
	if !strings.Contains(strings.Join(rows, "\n"), "message 300") {
		t.Fatalf("scrolled window missing message 300:\n%s", strings.Join(rows, "\n"))
	}
	if got := th.FormatCalls() - first; got == 0 || got > 40 {
		t.Fatalf("scroll formatted %d messages", got)
	}
	if len(th.cache) > 40 {
		t.Fatalf("cache holds %d entries outside the window", len(th.cache))
	}
}

func TestThreadFollowAndUnseen(t *testing.T) {
	th := newTestThread(ThreadOptions{VirtualizeAbove: 100})
	msgs := messages(30)
	th.SetMessages("c1", msgs, "")
	draw(t, th, 40, 10)

	msgs = append(msgs, store.Message{ID: 31, Origin: store.OriginClient, Text: "fresh"})
	th.SetMessages("c1", msgs, "")
	if !th.Following() || th.Unseen() != 0 {
		t.Fatal("pinned thread should follow new messages")
	}
	if !strings.Contains(strings.Join(draw(t, th, 40, 10), "\n"), "fresh") {
		t.Fatal("new message not visible while following")
	}

	th.Scroll(-10)
	msgs = append(msgs,
		store.Message{ID: 32, Origin: store.OriginClient, Text: "later"},
		store.Message{ID: 33, Origin: store.OriginClient, Text: "later again"})
	th.SetMessages("c1", msgs, "")
	if th.Following() || th.Unseen() != 2 {
		t.Fatalf("following=%v unseen=%d, want false/2", th.Following(), th.Unseen())
	}
	rows := draw(t, th, 40, 10)
	if !strings.Contains(rows[len(rows)-2], "2 new messages") {
		t.Fatalf("affordance missing:\n%s", strings.Join(rows, "\n"))
	}

	th.ScrollToBottom()
	if !th.Following() || th.Unseen() != 0 {
		t.Fatal("jumping to the bottom should resume following")
	}
}

func TestThreadDrawsMessagesArrivingAfterOpen(t *testing.T) {
	th := newTestThread(ThreadOptions{VirtualizeAbove: 100, RevealMin: 10, RevealMax: 50, RevealStep: time.Millisecond})
	th.SetMessages("c1", nil, "")
	if !strings.Contains(strings.Join(draw(t, th, 40, 10), "\n"), "No messages yet") {
		t.Fatal("empty thread placeholder missing")
	}

	th.SetMessages("c1", []store.Message{{ID: 1, Origin: store.OriginClient, Text: "hello-live"}}, "")
	if got := th.Revealed(); got != 1 {
		t.Fatalf("Revealed = %d, want 1", got)
	}
	body := strings.Join(draw(t, th, 40, 10), "\n")
	if !strings.Contains(body, "hello-live") || strings.Contains(body, "No messages yet") {
		t.Fatalf("live message not drawn:\n%s", body)
	}
}

func TestThreadRevealIncludesMessagesArrivingMidway(t *testing.T) {
	var pending []func()
	th := NewThread(ui.DefaultTheme(), ThreadOptions{
		VirtualizeAbove: 100, RevealMin: 10, RevealMax: 50, RevealStep: time.Millisecond,
	})
	th.schedule = func(_ time.Duration, fn func()) { pending = append(pending, fn) }

	msgs := messages(12)
	th.SetMessages("c1", msgs, "")
	th.SetMessages("c1", append(msgs, store.Message{ID: 13, Origin: store.OriginAI, Text: "late"}), "")
	if got := th.Revealed(); got != 1 {
		t.Fatalf("arrival during reveal jumped to %d", got)
	}
	for len(pending) > 0 {
		fn := pending[0]
		pending = pending[1:]
		fn()
	}
	if got := th.Revealed(); got != 13 {
		t.Fatalf("Revealed = %d, want 13", got)
	}

	th.SetMessages("c1", append(msgs, store.Message{ID: 13}, store.Message{ID: 14, Text: "after"}), "")
	if got := th.Revealed(); got != 14 {
		t.Fatalf("Revealed after reveal finished = %d, want 14", got)
	}
}

func TestThreadSwitchResetsState(t *testing.T) {
	th := newTestThread(ThreadOptions{VirtualizeAbove: 100})
	th.SetMessages("c1", messages(30), "")
	th.Scroll(-5)
	th.MoveSelection(-1)
	th.SetMessages("c2", messages(3), "")
	if !th.Following() || th.Unseen() != 0 {
		t.Fatal("switching conversation should follow")
	}
	if m, ok := th.Selected(); ok {
		t.Fatalf("selection survived the switch: %+v", m)
	}
}

func TestThreadSelection(t *testing.T) {
	th := newTestThread(ThreadOptions{VirtualizeAbove: 100})
	msgs := messages(5)
	msgs[1].IsAudio = true
	th.SetMessages("c1", msgs, "")

	if m, ok := th.Selected(); !ok || m.ID != 2 {
		t.Fatalf("default selection = %+v, want newest audio", m)
	}
	th.MoveSelection(-1)
	if m, _ := th.Selected(); m.ID != 5 {
		t.Fatalf("first move selects the bottom message, got %d", m.ID)
	}
	th.MoveSelection(-2)
	if m, _ := th.Selected(); m.ID != 3 {
		t.Fatalf("selected %d, want 3", m.ID)
	}
	th.MoveSelection(-10)
	if m, _ := th.Selected(); m.ID != 1 {
		t.Fatalf("selection not clamped: %d", m.ID)
	}
}

func TestThreadReveal(t *testing.T) {
	var pending []func()
	th := NewThread(ui.DefaultTheme(), ThreadOptions{
		VirtualizeAbove: 100, RevealMin: 10, RevealMax: 50, RevealStep: time.Millisecond,
	})
	th.schedule = func(_ time.Duration, fn func()) { pending = append(pending, fn) }

	th.SetMessages("c1", messages(12), "")
	if got := th.Revealed(); got != 1 {
		t.Fatalf("Revealed = %d, want 1", got)
	}
	for len(pending) > 0 {
		fn := pending[0]
		pending = pending[1:]
		fn()
	}
	if got := th.Revealed(); got != 12 {
		t.Fatalf("Revealed = %d, want 12", got)
	}

	th.SetMessages("c2", messages(5), "")
	if got := th.Revealed(); got != 5 || len(pending) != 0 {
		t.Fatalf("short thread revealed %d with %d pending steps", got, len(pending))
	}
	th.SetMessages("c3", messages(60), "")
	if got := th.Revealed(); got != 60 {
		t.Fatalf("long thread revealed %d", got)
	}
}

func TestThreadRevealCancelledOnSwitch(t *testing.T) {
	var pending []func()
	th := NewThread(ui.DefaultTheme(), ThreadOptions{RevealMin: 10, RevealMax: 50, RevealStep: time.Millisecond})
	th.schedule = func(_ time.Duration, fn func()) { pending = append(pending, fn) }

	th.SetMessages("c1", messages(20), "")
	th.SetMessages("c2", messages(3), "")
	for _, fn := range pending {
		fn()
	}
	if got := th.Revealed(); got != 3 {
		t.Fatalf("stale reveal step changed the new thread: %d", got)
	}
}

func TestFormatAudioMessage(t *testing.T) {
	theme := ui.DefaultTheme()
	m := store.Message{ID: 9, Origin: store.OriginClient, IsAudio: true, Text: "Voice message"}
	lines := formatMessage(m, false, 40, theme)
	if len(lines) != 2 || !strings.Contains(lines[1], "unavailable") {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "Client") || !strings.Contains(lines[0], "#9") {
		t.Fatalf("header = %q", lines[0])
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(65 * time.Second); got != "1:05" {
		t.Errorf("got %q", got)
	}
	if got := FormatClock(5 * time.Minute); got != "5:00" {
		t.Errorf("got %q", got)
	}
}

func TestStatusBarLine(t *testing.T) {
	sb := NewStatusBar(ui.DefaultTheme(), "main")
	sb.now = func() time.Time { return time.Date(2026, 1, 2, 9, 30, 0, 0, time.Local) }
	line := sb.line(store.State{Connection: "live", ManualMode: true, Filter: store.FilterUnread, SearchQuery: "ana"})
	for _, want := range []string{"main", "live", "operator", "filter:unread", "search:ana", "09:30"} {
		if !strings.Contains(line, want) {
			t.Errorf("status line %q missing %q", line, want)
		}
	}
}

func TestConversationListRows(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	st := store.State{Conversations: []store.Conversation{
		{ID: "1", Name: "Ana Ruiz", Phone: "1", Unread: 2},
		{ID: "2", Name: "Bo", Phone: "2", NeedsAttention: true},
		{ID: "3", Name: "Cy", Phone: "3"},
	}, Filter: store.FilterAll}
	cl.Update(st)
	if got := cl.GetRowCount(); got != 4 {
		t.Fatalf("rows = %d, want header + 3", got)
	}
	if got := cl.ConversationAt(2); got != "2" {
		t.Fatalf("ConversationAt(2) = %q", got)
	}
	if got := strings.TrimSpace(cl.GetCell(1, 0).Text); got != "AR" {
		t.Fatalf("avatar = %q", got)
	}

	st.Filter = store.FilterAttention
	cl.Update(st)
	if got := cl.ConversationAt(1); got != "2" || cl.ConversationAt(2) != "" {
		t.Fatalf("attention filter rows wrong: %q", got)
	}

	cl.Update(store.State{Loading: true})
	if !strings.Contains(cl.GetCell(1, 1).Text, "Loading") {
		t.Fatalf("placeholder = %q", cl.GetCell(1, 1).Text)
	}
}
