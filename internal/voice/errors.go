package voice

import (
	"errors"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNoDevice         = errors.New("no audio input device")
	ErrCapture          = errors.New("audio capture failed")
	ErrBusy             = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("not recording")
	ErrEmptyClip        = errors.New("recording is empty")
	ErrNoPlayer         = errors.New("audio player unavailable")
)

// Describe returns the operator-facing message for a voice error.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access denied. Check the system privacy settings."
	case errors.Is(err, ErrNoDevice):
		return "No microphone found (or the recorder is not installed)."
	case errors.Is(err, ErrBusy):
		return "Already recording."
	case errors.Is(err, ErrNotRecording):
		return "Not recording."
	case errors.Is(err, ErrEmptyClip):
		return "Nothing was recorded."
	case errors.Is(err, ErrNoPlayer):
		return "Audio player not available."
	default:
		return "Could not record audio."
	}
}

var (
	permissionHints = []string{"permission denied", "operation not permitted", "not authorized", "access denied"}
	deviceHints     = []string{"no such device", "no such file or directory", "cannot open audio device", "device not found", "no capture devices", "input/output error", "connection refused"}
)

// classify maps recorder stderr output to a sentinel.
func classify(stderr string) error {
	s := strings.ToLower(stderr)
	for _, h := range permissionHints {
		if strings.Contains(s, h) {
			return ErrPermissionDenied
		}
	}
	for _, h := range deviceHints {
		if strings.Contains(s, h) {
			return ErrNoDevice
		}
	}
	return ErrCapture
}
