// internal/results/timestamp.go
package results

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout is the naive local ISO-8601 layout used for run files. The
// power monitor writes local wall-clock times without an offset, so run files
// do the same to keep both series on one clock.
const TimestampLayout = "2006-01-02T15:04:05.000000"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp wraps time.Time with the run-file JSON encoding. The zero value
// encodes as null.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// MarshalJSON writes the local naive ISO form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Local().Format(TimestampLayout))), nil
}

// UnmarshalJSON accepts RFC 3339 or naive ISO timestamps (interpreted in the
// local zone).
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses s with the accepted run-file layouts.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if layout == time.RFC3339Nano {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
			continue
		}
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
