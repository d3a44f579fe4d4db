package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matheus3301/botdesk/internal/store"
)

// Line is a `:` prompt entry split into name and arguments.
type Line struct {
	Name string
	Args string
}

// Split parses a prompt string (without the leading ':').
func Split(input string) Line {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	l := Line{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		l.Args = strings.TrimSpace(parts[1])
	}
	return l
}

// Parse maps a prompt line to a Command. UI-only verbs (quit, help) are not
// commands and yield ok=false with a nil error.
func Parse(input string) (cmd Command, ok bool, err error) {
	l := Split(input)
	switch l.Name {
	case "refresh", "r", "reload":
		return Refresh{}, true, nil
	case "filter", "f":
		if l.Args == "" {
			return CycleFilter{}, true, nil
		}
		f, err := store.ParseFilter(l.Args)
		if err != nil {
			return nil, false, err
		}
		return SetFilter{Filter: f}, true, nil
	case "search", "s":
		return SetSearch{Query: l.Args}, true, nil
	case "control", "takeover":
		switch strings.ToLower(l.Args) {
		case "":
			return ToggleManualMode{}, true, nil
		case "on", "true", "1":
			return SetManualMode{On: true}, true, nil
		case "off", "false", "0":
			return SetManualMode{On: false}, true, nil
		}
		return nil, false, fmt.Errorf("control: expected on or off, got %q", l.Args)
	case "release":
		return SetManualMode{On: false}, true, nil
	case "reply", "qr":
		n, err := strconv.Atoi(l.Args)
		if err != nil || n < 1 {
			return nil, false, fmt.Errorf("reply: expected a quick reply number, got %q", l.Args)
		}
		return SendQuickReply{Index: n - 1}, true, nil
	case "record", "rec":
		return StartRecording{}, true, nil
	case "stop":
		return StopAudio{}, true, nil
	case "quit", "q", "q!", "help", "?":
		return nil, false, nil
	case "":
		return nil, false, fmt.Errorf("empty command")
	}
	return nil, false, fmt.Errorf("unknown command: %s", l.Name)
}
