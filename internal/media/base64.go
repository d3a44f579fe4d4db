package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBase64 is returned when an audio payload is not well-formed base64.
var ErrInvalidBase64 = errors.New("invalid base64 audio payload")

// ErrEmptyPayload is returned for payloads that decode to nothing.
var ErrEmptyPayload = errors.New("empty audio payload")

// StripDataURI removes a leading "data:<mime>;base64," prefix if present.
func StripDataURI(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return s
}

// DecodeBase64 validates and decodes a standard-alphabet base64 payload.
// Embedded whitespace is ignored and missing padding is tolerated.
func DecodeBase64(s string) ([]byte, error) {
	s = StripDataURI(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, ErrEmptyPayload
	}

	enc := base64.StdEncoding
	if !strings.HasSuffix(s, "=") && len(s)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	data, err := enc.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}
