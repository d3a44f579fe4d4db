// Package command defines the closed set of actions the console UI asks the
// controller to perform.
package command

import "github.com/matheus3301/botdesk/internal/store"

// Command is implemented only by the types in this package.
type Command interface {
	command()
	// Name identifies the command in logs.
	Name() string
}

// Refresh refetches the conversation list.
type Refresh struct{}

// SelectConversation makes a conversation active. An empty ID clears the
// selection.
type SelectConversation struct{ ID string }

// SetSearch replaces the search query.
type SetSearch struct{ Query string }

// SetFilter selects a list filter.
type SetFilter struct{ Filter store.Filter }

// CycleFilter advances all → unread → attention → all.
type CycleFilter struct{}

// SetManualMode turns operator control on or off.
type SetManualMode struct{ On bool }

// ToggleManualMode flips operator control.
type ToggleManualMode struct{}

// SendText sends an operator message to the active conversation.
type SendText struct{ Text string }

// SendQuickReply sends the configured quick reply at Index.
type SendQuickReply struct{ Index int }

// StartRecording begins a voice note.
type StartRecording struct{}

// StopRecording finishes the voice note and sends it.
type StopRecording struct{}

// CancelRecording discards the voice note.
type CancelRecording struct{}

// PlayAudio toggles playback of an audio message in the active conversation.
type PlayAudio struct{ MessageID int64 }

// StopAudio stops playback.
type StopAudio struct{}

func (Refresh) command()            {}
func (SelectConversation) command() {}
func (SetSearch) command()          {}
func (SetFilter) command()          {}
func (CycleFilter) command()        {}
func (SetManualMode) command()      {}
func (ToggleManualMode) command()   {}
func (SendText) command()           {}
func (SendQuickReply) command()     {}
func (StartRecording) command()     {}
func (StopRecording) command()      {}
func (CancelRecording) command()    {}
func (PlayAudio) command()          {}
func (StopAudio) command()          {}

func (Refresh) Name() string            { return "refresh" }
func (SelectConversation) Name() string { return "select_conversation" }
func (SetSearch) Name() string          { return "set_search" }
func (SetFilter) Name() string          { return "set_filter" }
func (CycleFilter) Name() string        { return "cycle_filter" }
func (SetManualMode) Name() string      { return "set_manual_mode" }
func (ToggleManualMode) Name() string   { return "toggle_manual_mode" }
func (SendText) Name() string           { return "send_text" }
func (SendQuickReply) Name() string     { return "send_quick_reply" }
func (StartRecording) Name() string     { return "start_recording" }
func (StopRecording) Name() string      { return "stop_recording" }
func (CancelRecording) Name() string    { return "cancel_recording" }
func (PlayAudio) Name() string          { return "play_audio" }
func (StopAudio) Name() string          { return "stop_audio" }
