package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrNotFound matches any *Error carrying a 404 status via errors.Is
var ErrNotFound = errors.New("not found")

// Error is the single failure kind returned by the transport. Message is a
// best-effort human readable text; Status is 0 when no response was received.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports 404 errors as ErrNotFound
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// errorBody is the part of a failure body the transport understands.
// Fields are decoded loosely so that non-string values are ignored.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// errorFromResponse builds the normalized error for a non-2xx response.
// The message is taken from the body's "message" field, then "error", then
// the status text, and finally a generic fallback.
func errorFromResponse(status int, statusLine string, body []byte) *Error {
	message := statusText(status, statusLine)

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if s, ok := jsonString(parsed.Message); ok {
			message = s
		} else if s, ok := jsonString(parsed.Error); ok {
			message = s
		}
	}

	if message == "" {
		message = fmt.Sprintf("Request failed with status %d", status)
	}

	return &Error{Status: status, Message: message}
}

// statusText extracts the reason phrase from a status line like "404 Not Found"
func statusText(status int, statusLine string) string {
	text := strings.TrimSpace(strings.TrimPrefix(statusLine, strconv.Itoa(status)))
	if text == "" {
		text = http.StatusText(status)
	}
	return text
}

func jsonString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
