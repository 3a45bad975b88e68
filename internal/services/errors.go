package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/signx/internal/adapter"
	"github.com/desertthunder/signx/internal/shape"
	"github.com/desertthunder/signx/internal/shared"
	"github.com/desertthunder/signx/internal/xmljson"
)

const maxMessageLen = 200

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string // Server-supplied text, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v (status %d): %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.StatusCode)
}

// Unwrap lets errors.Is match [shared.ErrAPIRequest].
func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// UserMessage is the text to show a user: the server's message when present, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// newAPIError builds an [APIError], pulling a message out of a JSON or XML error body.
func newAPIError(status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Message: extractMessage(body)}
}

// errorPayload is a JSON error body. Field names match case-insensitively, so "Message" also fills Message.
// Errors may be a single entry or a list.
type errorPayload struct {
	Message string                        `json:"message"`
	Detail  string                        `json:"detail"`
	Errors  shape.List[errorPayloadEntry] `json:"errors"`
}

// errorPayloadEntry is one entry of errorPayload.Errors: a bare string or an object with a message.
type errorPayloadEntry struct {
	Message string `json:"message"`
}

func (e *errorPayloadEntry) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Message)
	}
	type plain errorPayloadEntry
	return json.Unmarshal(data, (*plain)(e))
}

func (p errorPayload) text() string {
	if p.Message != "" {
		return p.Message
	}
	if p.Detail != "" {
		return p.Detail
	}
	for _, e := range p.Errors {
		if e.Message != "" {
			return e.Message
		}
	}
	return ""
}

func extractMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "{") {
		var payload errorPayload
		if err := json.Unmarshal(body, &payload); err == nil {
			return truncate(payload.text())
		}
	}

	if tree, err := xmljson.Decode(body); err == nil {
		for _, root := range tree {
			if rec, ok := root.(map[string]any); ok {
				if msg := adapter.Text(rec, "Message"); msg != "" {
					return msg
				}
			}
		}
		return ""
	}

	return truncate(trimmed)
}

// truncate shortens s to at most maxMessageLen bytes without splitting a UTF-8 sequence.
func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
