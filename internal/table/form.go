package table

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Rule describes a form limit for display. The limit itself is enforced by
// the binding tags of the input struct.
type Rule struct {
	Field    string `json:"field"`
	Label    string `json:"label"`
	Max      int    `json:"max,omitempty"`
	Required bool   `json:"required"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, 0, len(fe))
	for _, e := range fe {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Counters renders the live "n/max caratteri" hint per limited field.
func Counters(rules []Rule, values map[string]string) map[string]string {
	out := make(map[string]string, len(rules))
	for _, r := range rules {
		if r.Max <= 0 {
			continue
		}
		out[r.Field] = fmt.Sprintf("%d/%d caratteri", utf8.RuneCountInString(values[r.Field]), r.Max)
	}
	return out
}
