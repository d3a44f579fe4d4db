package views

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/rivo/tview"
)

// Composer is the text input for sending messages.
type Composer struct {
	*tview.InputField
	theme  *ui.Theme
	onSend func(text string)
	onDone func()
}

// NewComposer creates a new message composer.
func NewComposer(theme *ui.Theme) *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetBorder(true)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)
	input.SetTitleColor(theme.TitleColor)

	c := &Composer{InputField: input, theme: theme}
	c.SetManual(false)

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := strings.TrimSpace(c.GetText())
			if text != "" && c.onSend != nil {
				c.onSend(text)
				c.SetText("")
			}
		case tcell.KeyEscape:
			if c.onDone != nil {
				c.onDone()
			}
		}
	})

	return c
}

// SetOnSend sets the callback when a message is sent.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetOnDone sets the callback when the operator leaves the composer.
func (c *Composer) SetOnDone(fn func()) {
	c.onDone = fn
}

// SetManual updates the title and placeholder for the control mode. Typing is
// allowed either way; sending without control is refused downstream.
func (c *Composer) SetManual(manual bool) {
	if manual {
		c.SetTitle(" Reply as operator (Enter send, Esc leave) ")
		c.SetPlaceholder("Type a message")
		c.SetBorderColor(c.theme.OperatorColor)
		return
	}
	c.SetTitle(" Compose (i to focus) ")
	c.SetPlaceholder("Press c to take control before sending")
	c.SetBorderColor(c.theme.BorderColor)
}
