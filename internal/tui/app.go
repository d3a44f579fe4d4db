package tui

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/botdesk/internal/command"
	"github.com/matheus3301/botdesk/internal/store"
	"github.com/matheus3301/botdesk/internal/tui/keys"
	"github.com/matheus3301/botdesk/internal/tui/ui"
	"github.com/matheus3301/botdesk/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Page names.
const (
	PageConversations = "conversations"
	PageThread        = "thread"
	PageDetails       = "details"
	PageHelp          = "help"
	PageRecording     = "recording"
)

// Dispatcher executes operator commands.
type Dispatcher interface {
	Dispatch(cmd command.Command)
}

// RecordingClock reports the progress of the current voice note.
type RecordingClock interface {
	Elapsed() time.Duration
	Limit() time.Duration
}

// Options configures the console UI.
type Options struct {
	Profile      string
	BaseURL      string
	QuickReplies []string
	Thread       views.ThreadOptions
}

// commandVerbs feed prompt completion.
var commandVerbs = []string{
	"control", "filter", "help", "quit", "record", "refresh", "release", "reply", "search", "stop",
}

// App is the main TUI application shell. It renders store snapshots and turns
// key presses into commands; it never talks to the network itself.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	opts     Options
	store    *store.Store
	dispatch Dispatcher
	flash    *ui.FlashModel
	clock    RecordingClock
	logger   *zap.Logger
	registry *keys.Registry
	started  time.Time

	root        *tview.Flex
	pages       *ui.Pages
	crumbs      *ui.Crumbs
	menu        *ui.Menu
	profileInfo *ui.ProfileInfo
	flashBar    *ui.FlashBar
	prompt      *ui.Prompt

	list      *views.ConversationList
	header    *views.ConversationHeader
	thread    *views.Thread
	quick     *views.QuickReplies
	composer  *views.Composer
	info      *views.ConversationInfo
	help      *views.HelpView
	recording *views.RecordingOverlay
	statusBar *views.StatusBar

	components map[string]ui.Component

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	latest   store.State
	renderCh chan struct{}
}

// NewApp creates the TUI application.
func NewApp(opts Options, st *store.Store, d Dispatcher, flash *ui.FlashModel, clock RecordingClock, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:         tview.NewApplication(),
		theme:       theme,
		opts:        opts,
		store:       st,
		dispatch:    d,
		flash:       flash,
		clock:       clock,
		logger:      logger,
		registry:    keys.NewRegistry(),
		started:     time.Now(),
		pages:       ui.NewPages(),
		crumbs:      ui.NewCrumbs(theme),
		menu:        ui.NewMenu(theme),
		profileInfo: ui.NewProfileInfo(theme),
		flashBar:    ui.NewFlashBar(theme),
		prompt:      ui.NewPrompt(theme, commandVerbs),
		list:        views.NewConversationList(theme),
		header:      views.NewConversationHeader(theme),
		thread:      views.NewThread(theme, opts.Thread),
		quick:       views.NewQuickReplies(theme, opts.QuickReplies),
		composer:    views.NewComposer(theme),
		info:        views.NewConversationInfo(theme),
		help:        views.NewHelpView(theme),
		recording:   views.NewRecordingOverlay(theme),
		statusBar:   views.NewStatusBar(theme, opts.Profile),
		ctx:         ctx,
		cancel:      cancel,
		renderCh:    make(chan struct{}, 1),
	}
	a.components = map[string]ui.Component{
		PageConversations: a.list,
		PageThread:        a.thread,
		PageDetails:       a.info,
		PageHelp:          a.help,
		PageRecording:     a.recording,
	}

	a.thread.SetQueue(a.queue)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	a.render(st.GetState())

	return a
}

func (a *App) setupBindings() {
	bind := func(name string, r rune, desc string, visible bool, fn func()) *keys.Action {
		return &keys.Action{Name: name, Key: tcell.KeyRune, Rune: r, Description: desc, Visible: visible, Handler: fn}
	}

	a.registry.AddGlobal(bind("command", ':', "Command", true, func() { a.showPrompt(ui.PromptCommand, "") }))
	a.registry.AddGlobal(bind("search", '/', "Search", true, func() {
		a.showPrompt(ui.PromptFilter, a.store.GetState().SearchQuery)
	}))
	a.registry.AddGlobal(bind("filter", 'f', "Filter", true, func() { a.dispatch.Dispatch(command.CycleFilter{}) }))
	a.registry.AddGlobal(bind("reload", 'r', "Reload", true, func() { a.dispatch.Dispatch(command.Refresh{}) }))
	a.registry.AddGlobal(bind("control", 'c', "Control", true, func() { a.dispatch.Dispatch(command.ToggleManualMode{}) }))
	a.registry.AddGlobal(bind("help", '?', "Help", true, func() { a.push(PageHelp) }))
	a.registry.AddGlobal(bind("quit", 'q', "Quit", true, a.quitOrBack))

	a.registry.AddView(PageConversations, &keys.Action{
		Name: "open", Key: tcell.KeyEnter, Label: "Enter", Description: "Open", Visible: true,
		Handler: func() { a.open(a.list.SelectedConversation()) },
	})
	for n := 1; n <= 9; n++ {
		digit := rune('0' + n)
		a.registry.AddView(PageConversations, bind("jump-"+strconv.Itoa(n), digit, "", false, func() {
			a.open(a.list.ConversationAt(n))
		}))
		a.registry.AddView(PageThread, bind("reply-"+strconv.Itoa(n), digit, "", false, func() {
			a.dispatch.Dispatch(command.SendQuickReply{Index: n - 1})
		}))
	}

	a.registry.AddView(PageThread, bind("compose", 'i', "Compose", true, func() { a.app.SetFocus(a.composer) }))
	a.registry.AddView(PageThread, bind("record", 'R', "Record", true, func() { a.dispatch.Dispatch(command.StartRecording{}) }))
	a.registry.AddView(PageThread, bind("play", 'p', "Play", true, a.playSelected))
	a.registry.AddView(PageThread, bind("play-space", ' ', "", false, a.playSelected))
	a.registry.AddView(PageThread, bind("stop-audio", 'x', "Stop audio", true, func() { a.dispatch.Dispatch(command.StopAudio{}) }))
	a.registry.AddView(PageThread, bind("details", 'd', "Details", true, func() { a.push(PageDetails) }))

	a.registry.AddView(PageRecording, &keys.Action{
		Name: "send-voice", Key: tcell.KeyEnter, Label: "Enter", Description: "Send", Visible: true,
		Handler: func() { a.dispatch.Dispatch(command.StopRecording{}) },
	})
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, _ int) {
		a.open(a.list.ConversationAt(row))
	})

	a.composer.SetOnSend(func(text string) {
		a.dispatch.Dispatch(command.SendText{Text: text})
	})
	a.composer.SetOnDone(func() {
		a.app.SetFocus(a.thread)
	})

	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.dispatch.Dispatch(command.SetSearch{Query: text})
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptFilter:
			a.dispatch.Dispatch(command.SetSearch{Query: text})
		case ui.PromptCommand:
			a.runCommand(text)
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		if c, ok := a.components[a.pages.Current()]; ok {
			a.menu.Update(mergeHints(c.Hints(), a.registry.Hints(a.pages.Current())))
		}
	})
}

func (a *App) setupLayout() {
	threadPage := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 2, 0, false).
		AddItem(a.thread, 0, 1, true).
		AddItem(a.quick, 1, 0, false).
		AddItem(a.composer, 3, 0, false)

	a.pages.AddPage(PageConversations, a.list, true, false)
	a.pages.AddPage(PageThread, threadPage, true, false)
	a.pages.AddPage(PageDetails, a.info, true, false)
	a.pages.AddPage(PageHelp, a.help, true, false)
	a.pages.AddOverlay(PageRecording, a.recording, 40, 7)

	for page, c := range a.components {
		a.crumbs.SetLabel(page, c.Name())
	}

	headerRow := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.profileInfo, 40, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(ui.NewLogo(a.theme), 24, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerRow, 6, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.pages.Reset(PageConversations)
	a.app.SetRoot(a.root, true)
	a.app.SetFocus(a.list)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC {
		a.app.Stop()
		return nil
	}

	// Text inputs handle their own keys, Esc included.
	if _, ok := a.app.GetFocus().(*tview.InputField); ok {
		return event
	}

	page := a.pages.Current()
	if event.Key() == tcell.KeyEscape {
		if page == PageRecording {
			a.dispatch.Dispatch(command.CancelRecording{})
			return nil
		}
		a.back()
		return nil
	}
	if page == PageRecording && event.Key() != tcell.KeyEnter {
		return nil
	}
	if a.registry.HandleEvent(page, event) {
		return nil
	}
	return event
}

func (a *App) runCommand(text string) {
	switch command.Split(text).Name {
	case "quit", "q", "q!":
		a.app.Stop()
		return
	case "help", "?":
		a.push(PageHelp)
		return
	}
	cmd, ok, err := command.Parse(text)
	if err != nil {
		a.flash.Warn(err.Error())
		return
	}
	if !ok {
		return
	}
	if _, rec := cmd.(command.StartRecording); rec && a.pages.Current() != PageThread {
		a.flash.Warn("Open a conversation first")
		return
	}
	a.dispatch.Dispatch(cmd)
}

func (a *App) open(id string) {
	if id == "" {
		return
	}
	a.dispatch.Dispatch(command.SelectConversation{ID: id})
	a.pages.PopTo(PageConversations)
	a.push(PageThread)
}

func (a *App) playSelected() {
	m, ok := a.thread.Selected()
	if !ok || !m.IsAudio {
		a.flash.Info("Select a voice message to play")
		return
	}
	a.dispatch.Dispatch(command.PlayAudio{MessageID: m.ID})
}

func (a *App) push(page string) {
	a.pages.Push(page)
	a.focusCurrent()
}

func (a *App) back() {
	popped := a.pages.Pop()
	if popped == PageThread {
		a.dispatch.Dispatch(command.SelectConversation{})
	}
	a.focusCurrent()
}

func (a *App) quitOrBack() {
	if len(a.pages.Stack()) > 1 {
		a.back()
		return
	}
	a.app.Stop()
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case PageConversations:
		a.app.SetFocus(a.list)
	case PageThread:
		a.app.SetFocus(a.thread)
	case PageDetails:
		a.app.SetFocus(a.info)
	case PageHelp:
		a.app.SetFocus(a.help)
	case PageRecording:
		a.app.SetFocus(a.recording)
	}
}

func (a *App) showPrompt(mode ui.PromptMode, text string) {
	a.prompt.Activate(mode, text)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

// render redraws every view from a snapshot. UI loop only.
func (a *App) render(st store.State) {
	a.list.Update(st)
	a.statusBar.Update(st)

	unread := 0
	for _, c := range st.Conversations {
		unread += c.Unread
	}
	a.profileInfo.Update(ui.ProfileData{
		Profile:       a.opts.Profile,
		BaseURL:       a.opts.BaseURL,
		Connection:    st.Connection,
		ManualMode:    st.ManualMode,
		Conversations: len(st.Conversations),
		Unread:        unread,
		Uptime:        time.Since(a.started),
	})

	a.composer.SetManual(st.ManualMode)
	if conv, ok := st.Active(); ok {
		a.header.Update(conv, st.ManualMode)
		a.info.Update(conv, st.ManualMode)
		a.thread.SetMessages(conv.ID, conv.Messages, st.Playing)
		a.thread.SetTitle(" " + tview.Escape(conv.Name) + " ")
		a.crumbs.SetLabel(PageThread, conv.Name)
	} else {
		a.thread.SetMessages("", nil, st.Playing)
		a.thread.SetTitle(" Messages ")
		a.crumbs.SetLabel(PageThread, a.thread.Name())
	}

	switch {
	case st.Recording && a.pages.Current() != PageRecording:
		a.push(PageRecording)
	case !st.Recording && a.pages.Contains(PageRecording):
		a.pages.PopTo(PageRecording)
		a.pages.Pop()
		a.focusCurrent()
	}
	if st.Recording && a.clock != nil {
		a.recording.Update(a.clock.Elapsed(), a.clock.Limit())
	}
	a.crumbs.Update(a.pages.Stack())
	a.flashBar.Update(a.flash.GetMessage())
}

// queue runs fn on the UI loop from any goroutine other than the loop itself.
func (a *App) queue(fn func()) {
	if a.ctx.Err() != nil {
		return
	}
	a.app.QueueUpdateDraw(fn)
}

// signal records the newest snapshot and wakes the render loop. It never
// blocks, so store subscribers can run on any goroutine including the UI one.
func (a *App) signal(st store.State) {
	a.mu.Lock()
	a.latest = st
	a.mu.Unlock()
	select {
	case a.renderCh <- struct{}{}:
	default:
	}
}

func (a *App) snapshot() store.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

func (a *App) renderLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.renderCh:
			st := a.snapshot()
			a.queue(func() { a.render(st) })
		case <-a.flash.Watch():
			a.queue(func() { a.flashBar.Update(a.flash.GetMessage()) })
		case <-ticker.C:
			st := a.snapshot()
			a.queue(func() { a.render(st) })
		}
	}
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	a.signal(a.store.GetState())
	unsubscribe := a.store.Subscribe(a.signal)
	defer unsubscribe()

	go a.renderLoop()
	a.pages.Reset(PageConversations)

	err := a.app.Run()
	a.cancel()
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// mergeHints appends registry hints whose keys are not already listed.
func mergeHints(base, extra []ui.MenuHint) []ui.MenuHint {
	seen := make(map[string]bool, len(base))
	for _, h := range base {
		seen[h.Key] = true
	}
	out := append([]ui.MenuHint(nil), base...)
	for _, h := range extra {
		if !seen[h.Key] {
			seen[h.Key] = true
			out = append(out, h)
		}
	}
	return out
}
