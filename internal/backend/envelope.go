package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Result is the uniform {success, message, data} reply of every service call.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func Ok[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Message: message, Data: data}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{Success: false, Message: ErrorMessage(err)}
}

// ErrorMessage is the user-facing text for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Error()
	}
	return err.Error()
}

// DecodeList accepts a bare array, a single object, null, or any of those
// wrapped in a {"data": ...} envelope.
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = unwrapData(raw)
	out := []T{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return append(out, one), nil
}

// DecodeOne decodes a single object, possibly wrapped in {"data": ...}.
// A null payload yields nil.
func DecodeOne[T any](raw json.RawMessage) (*T, error) {
	raw = unwrapData(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		list, err := DecodeList[T](raw)
		if err != nil || len(list) == 0 {
			return nil, err
		}
		return &list[0], nil
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &one, nil
}

func unwrapData(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return raw
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	if data, ok := env["data"]; ok {
		return bytes.TrimSpace(data)
	}
	return raw
}
