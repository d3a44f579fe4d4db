package ui

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func TestComplete(t *testing.T) {
	verbs := []string{"control", "filter", "quit", "record", "refresh", "release", "reply"}
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"re", []string{"record", "refresh", "release", "reply"}},
		{"REF", []string{"refresh"}},
		{"refresh", nil},
		{"reply 2", nil},
		{"zzz", nil},
	}
	for _, tt := range tests {
		if got := Complete(verbs, tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("Complete(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	for _, n := range []string{"list", "thread", "help"} {
		p.AddPage(n, tview.NewBox(), true, false)
	}
	p.AddOverlay("rec", tview.NewBox(), 10, 3)

	var changes int
	p.SetOnChange(func([]string) { changes++ })

	p.Reset("list")
	p.Push("thread")
	p.Push("thread")
	p.Push("rec")
	if got := p.Stack(); !slices.Equal(got, []string{"list", "thread", "rec"}) {
		t.Fatalf("stack = %v", got)
	}
	if !p.HasPage("thread") || !p.Contains("rec") {
		t.Fatal("expected thread and rec on the stack")
	}
	if got := p.Pop(); got != "rec" || p.Current() != "thread" {
		t.Fatalf("Pop = %q, current %q", got, p.Current())
	}
	p.Push("help")
	p.PopTo("list")
	if p.Current() != "list" {
		t.Fatalf("current = %q, want list", p.Current())
	}
	if got := p.Pop(); got != "" {
		t.Fatalf("root popped: %q", got)
	}
	if changes != 7 {
		t.Fatalf("changes = %d, want 7", changes)
	}
}

func TestLayoutHints(t *testing.T) {
	hints := []MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Search"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
	lines := LayoutHints(hints, 2, DefaultTheme())
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "<Enter>") || !strings.Contains(lines[0], "<1-9>") {
		t.Errorf("first row = %q", lines[0])
	}
	if !strings.Contains(lines[1], "</>") {
		t.Errorf("second row = %q", lines[1])
	}
	if LayoutHints(nil, 5, DefaultTheme()) != nil {
		t.Error("no hints should yield no lines")
	}
}

func TestFlashModelLevels(t *testing.T) {
	f := NewFlashModel(time.Minute)
	if f.GetMessage() != nil {
		t.Fatal("new model has a message")
	}
	f.Warn("careful")
	m := f.GetMessage()
	if m == nil || m.Text != "careful" || m.Level != FlashWarn {
		t.Fatalf("message = %+v", m)
	}
	select {
	case got := <-f.Watch():
		if got.Text != "careful" {
			t.Fatalf("watched %q", got.Text)
		}
	default:
		t.Fatal("watch channel empty")
	}

	// Never blocks once the watch buffer is full.
	for range 50 {
		f.Info("spam")
	}
}

func TestFlashExpires(t *testing.T) {
	f := NewFlashModel(time.Millisecond)
	f.Info("gone soon")
	time.Sleep(5 * time.Millisecond)
	if f.GetMessage() != nil {
		t.Fatal("message did not expire")
	}
}

func TestFormatUptime(t *testing.T) {
	tests := map[time.Duration]string{
		0:                           "0m",
		7 * time.Minute:             "7m",
		2*time.Hour + 5*time.Minute: "2h5m",
	}
	for d, want := range tests {
		if got := FormatUptime(d); got != want {
			t.Errorf("FormatUptime(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestColorNameFallsBackToHex(t *testing.T) {
	if got := ColorName(DefaultTheme().BgColor); got != "black" {
		t.Errorf("ColorName(black) = %q", got)
	}
	if got := Tag(tcell.NewRGBColor(1, 2, 3)); got != "[#010203]" {
		t.Errorf("Tag = %q", got)
	}
}
