package backend

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// flexTime accepts RFC 3339 strings, unix milliseconds or null.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		f.Time = time.UnixMilli(ms)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Unparseable dates are dropped rather than failing the whole record.
		return nil
	}
	f.Time = t
	return nil
}
