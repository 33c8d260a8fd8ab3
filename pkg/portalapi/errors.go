package portalapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// NetworkError means no response was received
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("portalapi: %s %s: no response: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx answer from the backend
type StatusError struct {
	Method string
	Path   string
	Status int
	// Message is the backend's own explanation when it sent one, otherwise
	// a generic text for the status
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("portalapi: %s %s: API error (%d): %s", e.Method, e.Path, e.Status, e.Message)
}

// IsUnauthorized reports a 401 anywhere in err's chain
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports a 404 anywhere in err's chain
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsRetryable is true for transport failures and gateway statuses. Client
// errors, 500s and cancelled contexts are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

func hasStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}

// statusMessages are shown when the backend gives no detail of its own
var statusMessages = map[int]string{
	http.StatusBadRequest:          "invalid request parameters, check the input",
	http.StatusUnauthorized:        "authentication required, please log in",
	http.StatusForbidden:           "you do not have permission to perform this action",
	http.StatusNotFound:            "the requested resource does not exist",
	http.StatusUnprocessableEntity: "validation failed, check the input",
	http.StatusInternalServerError: "server error, please retry later",
}

// DefaultMessage is the generic text for an HTTP status
func DefaultMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("request failed: %d", status)
}

// ErrorMessage pulls a human readable message out of an error body. FastAPI
// style detail strings and validation arrays are preferred, then message and
// data.message, then the body itself when it is plain text.
func ErrorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		if body[0] == '{' || body[0] == '[' {
			return ""
		}
		return truncate(string(body), 512)
	}

	if msg := detailMessage(fields["detail"]); msg != "" {
		return msg
	}
	if msg := jsonString(fields["message"]); msg != "" {
		return msg
	}
	var data struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(fields["data"], &data); err == nil && data.Message != "" {
		return data.Message
	}
	return ""
}

// detailMessage handles detail as a string or a list of
// {"loc": [...], "msg": "..."} validation errors
func detailMessage(raw json.RawMessage) string {
	if s := jsonString(raw); s != "" {
		return s
	}
	var items []struct {
		Loc []json.RawMessage `json:"loc"`
		Msg string            `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		msg := item.Msg
		if msg == "" {
			msg = "invalid value"
		}
		if n := len(item.Loc); n > 0 {
			if field := locString(item.Loc[n-1]); field != "" {
				msg = field + ": " + msg
			}
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

func locString(raw json.RawMessage) string {
	if s := jsonString(raw); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func jsonString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
