package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// envelope is the list response: {status, numbers: [...]}.
type envelope struct {
	Status  flexInt           `json:"status"`
	Numbers []rawConversation `json:"numbers"`
}

// infoEnvelope is the detail response. The record is expected inline next to
// status; a record nested under "data" is accepted as well.
type infoEnvelope struct {
	Status flexInt `json:"status"`
	rawConversation
	Data *rawConversation `json:"data"`
}

type rawConversation struct {
	Name      *string         `json:"name"`
	Number    string          `json:"number"`
	Interview json.RawMessage `json:"interview"`
	Tags      []string        `json:"tags"`
	Source    string          `json:"source"`
	History   []rawMessage    `json:"history"`
}

type rawMessage struct {
	ID      flexInt  `json:"id"`
	Typo    flexInt  `json:"typo"`
	Message *string  `json:"message"`
	IsAudio flexBool `json:"isaudio"`
	Audio   string   `json:"audio"`
	Date    flexTime `json:"date"`
}

// LiveMessage is the payload of recibedMessage, IAsendMessage and sendMessage
// push events.
type LiveMessage struct {
	Number  string   `json:"number"`
	Message string   `json:"message"`
	Typo    flexInt  `json:"typo"`
	ID      flexInt  `json:"id"`
	IsAudio flexBool `json:"isaudio"`
	Audio   string   `json:"audio"`
}

// TypeCode returns the wire type code carried by the event, or fallback when
// the event did not include one.
func (l LiveMessage) TypeCode(fallback int) int {
	if l.Typo == 0 {
		return fallback
	}
	return int(l.Typo)
}

// sendRequest is the body of the single-number send endpoint.
type sendRequest struct {
	Number  string `json:"number"`
	Message string `json:"message,omitempty"`
	Audio   string `json:"audio,omitempty"`
}

// flexInt accepts a JSON number, a numeric string or null.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(strings.TrimSpace(string(b)), `"`) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}
