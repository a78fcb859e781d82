package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the dd/mm/yyyy hh:mm:ss form shown in tables and matched by search.
const DisplayLayout = "02/01/2006 15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339 and the zone-less ISO forms the backend emits.
// Zone-less values are read as local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// FormatDisplay renders t in DisplayLayout, or "" for the zero time.
func FormatDisplay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayLayout)
}

// Timestamp is a nullable backend date-time. The zero value means "absent".
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

// Display renders the timestamp for tables.
func (ts Timestamp) Display() string {
	return FormatDisplay(ts.Time)
}

// DateRange is an optional [Start, End) window. End is exclusive; a date-only
// end covers the whole day.
type DateRange struct {
	Start    time.Time
	End      time.Time
	HasStart bool
	HasEnd   bool
}

// ParseDateRange reads YYYY-MM-DD or RFC3339 bounds. Blank bounds are absent;
// reversed bounds are swapped.
func ParseDateRange(startStr, endStr string) (DateRange, error) {
	var r DateRange

	start, startOK, _, err := parseBound(startStr)
	if err != nil {
		return DateRange{}, fmt.Errorf("startDate: %w", err)
	}
	end, endOK, endDateOnly, err := parseBound(endStr)
	if err != nil {
		return DateRange{}, fmt.Errorf("endDate: %w", err)
	}

	if startOK && endOK && end.Before(start) {
		start, end = end, start
	}
	if startOK {
		r.Start, r.HasStart = start, true
	}
	if endOK {
		if endDateOnly {
			end = end.AddDate(0, 0, 1)
		}
		r.End, r.HasEnd = end, true
	}
	return r, nil
}

func parseBound(s string) (t time.Time, ok bool, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false, nil
	}
	if tt, e := time.Parse(time.RFC3339, s); e == nil {
		return tt, true, false, nil
	}
	if tt, e := time.Parse("2006-01-02", s); e == nil {
		return tt, true, true, nil
	}
	return time.Time{}, false, false, errors.New("invalid date format (use YYYY-MM-DD or RFC3339)")
}
