package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates the type of prompt (command or filter).
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

// Prompt is a command/filter input bar. In filter mode every keystroke is
// reported through the change callback.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	verbs    []string
	onSubmit func(mode PromptMode, text string)
	onChange func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a new prompt input bar. verbs feed command completion.
func NewPrompt(theme *Theme, verbs []string) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
		verbs:      verbs,
	}

	input.SetAutocompleteFunc(func(current string) []string {
		if p.mode != PromptCommand {
			return nil
		}
		return Complete(p.verbs, current)
	})
	input.SetChangedFunc(func(text string) {
		if p.onChange != nil {
			p.onChange(p.mode, text)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := strings.TrimSpace(p.GetText())
			if p.onSubmit != nil && (text != "" || p.mode == PromptFilter) {
				p.onSubmit(p.mode, text)
			}
			p.SetText("")
		case tcell.KeyEscape:
			p.SetText("")
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})

	return p
}

// Complete returns the verbs starting with current. Empty input offers none.
func Complete(verbs []string, current string) []string {
	current = strings.ToLower(strings.TrimSpace(current))
	if current == "" || strings.Contains(current, " ") {
		return nil
	}
	var out []string
	for _, v := range verbs {
		if strings.HasPrefix(v, current) && v != current {
			out = append(out, v)
		}
	}
	return out
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnChange sets the per-keystroke callback.
func (p *Prompt) SetOnChange(fn func(mode PromptMode, text string)) {
	p.onChange = fn
}

// SetOnCancel sets the callback when the prompt is cancelled.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate shows the prompt in the specified mode, prefilled with text.
func (p *Prompt) Activate(mode PromptMode, text string) {
	p.mode = mode
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Search name, tag or phone ")
	}
	p.SetText(text)
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
