package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages is a stack-based page manager wrapping tview.Pages.
// Pages pushed as overlays are drawn on top of the page below them.
type Pages struct {
	*tview.Pages
	stack    []string
	overlays map[string]bool
	onChange func(stack []string)
}

// NewPages creates a new stack-based page manager.
func NewPages() *Pages {
	return &Pages{
		Pages:    tview.NewPages(),
		overlays: make(map[string]bool),
	}
}

// AddOverlay registers a page that is drawn centered over the current page
// when pushed. width and height are in cells.
func (p *Pages) AddOverlay(name string, item tview.Primitive, width, height int) {
	grid := tview.NewGrid().
		SetColumns(0, width, 0).
		SetRows(0, height, 0).
		AddItem(item, 1, 1, 1, 1, 0, 0, true)
	p.AddPage(name, grid, true, false)
	p.overlays[name] = true
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push adds a page to the top of the stack and shows it. Pushing the page
// that is already on top is a no-op.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	if top := p.Current(); top != "" && !p.overlays[name] {
		p.HidePage(top)
	}
	p.stack = append(p.stack, name)
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

// Pop removes the top page and shows the previous one. The root page is
// never popped. Returns the name of the popped page, or empty.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	p.stack = p.stack[:len(p.stack)-1]
	current := p.stack[len(p.stack)-1]
	p.ShowPage(current)
	p.SendToFront(current)
	p.notify()
	return top
}

// PopTo pops pages until name is on top. Does nothing when name is not on
// the stack.
func (p *Pages) PopTo(name string) {
	if !p.Contains(name) {
		return
	}
	for p.Current() != name {
		p.Pop()
	}
}

// Current returns the name of the current (top) page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Contains reports whether name is anywhere on the stack.
func (p *Pages) Contains(name string) bool {
	return slices.Contains(p.stack, name)
}

// Stack returns a copy of the current page stack.
func (p *Pages) Stack() []string {
	return slices.Clone(p.stack)
}

// Reset clears the stack and shows only the given page.
func (p *Pages) Reset(name string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{name}
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
