package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

var ErrDisabled = errors.New("backend non configurato: funzionalità di rete disabilitate")

// Error is a failed backend call. Status is 0 for transport failures.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == http.StatusNotFound
}

// IsTransport reports a network-level failure (no HTTP status received).
func IsTransport(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == 0
}

// HTTPStatus maps an error from this package to the status the dashboard
// should answer with.
func HTTPStatus(err error) int {
	if errors.Is(err, ErrDisabled) {
		return http.StatusServiceUnavailable
	}
	var be *Error
	if errors.As(err, &be) {
		switch {
		case be.Status == 0:
			return http.StatusBadGateway
		case be.Status >= 400 && be.Status < 500:
			return be.Status
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

const maxRawMessage = 500

// extractMessage picks message, error or title from a JSON body, else the raw
// text, else a generic status line for an empty body.
func extractMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("HTTP error! status: %d", status)
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fallback
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err == nil {
		for _, key := range []string{"message", "error", "title"} {
			if s, ok := fields[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	} else {
		var str string
		if err := json.Unmarshal(trimmed, &str); err == nil && strings.TrimSpace(str) != "" {
			return str
		}
	}
	return truncate(string(trimmed), maxRawMessage)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
