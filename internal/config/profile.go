package config

import (
	"runtime"
	"time"
)

// Profile holds the settings for one backend.
type Profile struct {
	BaseURL   string    `toml:"base_url"`
	Endpoints Endpoints `toml:"endpoints"`

	RequestTimeout    time.Duration `toml:"request_timeout"`
	ReconnectDelay    time.Duration `toml:"reconnect_delay"`
	ReconnectAttempts int           `toml:"reconnect_attempts"`

	// UI timing.
	FlashDuration   time.Duration `toml:"flash_duration"`
	TypingTimeout   time.Duration `toml:"typing_timeout"`
	RevealStep      time.Duration `toml:"reveal_step"`
	RevealMin       int           `toml:"reveal_min"`
	RevealMax       int           `toml:"reveal_max"`
	VirtualizeAbove int           `toml:"virtualize_above"`
	Overscan        int           `toml:"overscan"`

	QuickReplies []string `toml:"quick_replies"`

	RecordLimit     time.Duration `toml:"record_limit"`
	RecorderCommand []string      `toml:"recorder_command"`
	PlayerCommand   []string      `toml:"player_command"`

	Notify *bool `toml:"notify"`
}

// Endpoints are the backend paths, relative to BaseURL.
type Endpoints struct {
	List string `toml:"list"`
	Info string `toml:"info"`
	Send string `toml:"send"`
}

// Defaults.
const (
	DefaultBaseURL           = "http://localhost:3000"
	DefaultRequestTimeout    = 15 * time.Second
	DefaultReconnectDelay    = 3 * time.Second
	DefaultReconnectAttempts = 5
	DefaultFlashDuration     = 3 * time.Second
	DefaultTypingTimeout     = 4 * time.Second
	DefaultRevealStep        = 25 * time.Millisecond
	DefaultRevealMin         = 10
	DefaultRevealMax         = 50
	DefaultVirtualizeAbove   = 100
	DefaultOverscan          = 20
	DefaultRecordLimit       = 5 * time.Minute
)

// DefaultQuickReplies are offered when a profile lists none.
var DefaultQuickReplies = []string{
	"Hello! An operator is taking over this conversation.",
	"Thanks for your patience, I'm checking this for you.",
	"Could you send me more details, please?",
	"I'm handing you back to our assistant. Have a great day!",
}

// DefaultEndpoints returns the backend's standard paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		List: "/m/get/all",
		Info: "/m/get/info/",
		Send: "/m/send/to/single/number",
	}
}

// DefaultRecorderCommand captures the default input device as Opus in Ogg.
// The output path is appended by the recorder.
func DefaultRecorderCommand() []string {
	var input []string
	switch runtime.GOOS {
	case "darwin":
		input = []string{"-f", "avfoundation", "-i", ":0"}
	case "windows":
		input = []string{"-f", "dshow", "-i", "audio=default"}
	default:
		input = []string{"-f", "pulse", "-i", "default"}
	}
	cmd := []string{"ffmpeg", "-hide_banner", "-loglevel", "error", "-y"}
	cmd = append(cmd, input...)
	return append(cmd, "-ac", "1", "-c:a", "libopus", "-b:a", "32k", "-f", "ogg")
}

// DefaultPlayerCommand plays a file without a window. The path is appended.
func DefaultPlayerCommand() []string {
	return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
}

// NotifyEnabled reports whether desktop notifications are on. Default true.
func (p Profile) NotifyEnabled() bool {
	return p.Notify == nil || *p.Notify
}

func (p Profile) withDefaults() Profile {
	if p.BaseURL == "" {
		p.BaseURL = DefaultBaseURL
	}
	def := DefaultEndpoints()
	if p.Endpoints.List == "" {
		p.Endpoints.List = def.List
	}
	if p.Endpoints.Info == "" {
		p.Endpoints.Info = def.Info
	}
	if p.Endpoints.Send == "" {
		p.Endpoints.Send = def.Send
	}
	durations := []struct {
		v   *time.Duration
		def time.Duration
	}{
		{&p.RequestTimeout, DefaultRequestTimeout},
		{&p.ReconnectDelay, DefaultReconnectDelay},
		{&p.FlashDuration, DefaultFlashDuration},
		{&p.TypingTimeout, DefaultTypingTimeout},
		{&p.RevealStep, DefaultRevealStep},
		{&p.RecordLimit, DefaultRecordLimit},
	}
	for _, d := range durations {
		if *d.v <= 0 {
			*d.v = d.def
		}
	}
	if p.ReconnectAttempts <= 0 {
		p.ReconnectAttempts = DefaultReconnectAttempts
	}
	if p.RevealMin <= 0 {
		p.RevealMin = DefaultRevealMin
	}
	if p.RevealMax < p.RevealMin {
		p.RevealMax = max(DefaultRevealMax, p.RevealMin)
	}
	if p.VirtualizeAbove <= 0 {
		p.VirtualizeAbove = DefaultVirtualizeAbove
	}
	if p.Overscan <= 0 {
		p.Overscan = DefaultOverscan
	}
	if p.RecordLimit > DefaultRecordLimit {
		p.RecordLimit = DefaultRecordLimit
	}
	if len(p.QuickReplies) == 0 {
		p.QuickReplies = append([]string(nil), DefaultQuickReplies...)
	}
	if len(p.RecorderCommand) == 0 {
		p.RecorderCommand = DefaultRecorderCommand()
	}
	if len(p.PlayerCommand) == 0 {
		p.PlayerCommand = DefaultPlayerCommand()
	}
	return p
}
