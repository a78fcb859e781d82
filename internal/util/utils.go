package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SplitList flattens comma-joined values into trimmed, non-empty, unique
// items, keeping first-seen order.
func SplitList(values ...string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, raw := range values {
		for _, p := range strings.Split(raw, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Measure is a nullable decimal the backend sends either as a number or as a
// numeric string.
type Measure struct {
	Value float64
	Valid bool
}

func NewMeasure(v float64) Measure { return Measure{Value: v, Valid: true} }

func (m *Measure) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = Measure{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		if s == "" {
			*m = Measure{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("measure: %w", err)
		}
		*m = NewMeasure(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("measure: %w", err)
	}
	*m = NewMeasure(f)
	return nil
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// String renders the value for search and export; "" when absent.
func (m Measure) String() string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// SanitizeFilename makes s safe as a single path element of an archive entry.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("\\", "_", "/", "_", "..", "_", `"`, "", "\n", "", "\r", "").Replace(name)
	if name == "" {
		return "file"
	}
	return name
}

// Code is an identifier the backend may send as a string or as a number.
// It always marshals back as a string.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*c = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("code: %w", err)
		}
		*c = Code(n.String())
	}
	return nil
}
