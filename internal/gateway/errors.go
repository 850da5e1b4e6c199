package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Failure kinds, used for metrics labels and logging.
const (
	KindValidation    = "validation"
	KindAuthorization = "authorization"
	KindNetwork       = "network"
	KindRequest       = "request"
	// KindClient labels failures raised before a request was sent.
	KindClient        = "client"
)

// ValidationError is a 422 response carrying field-level messages.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	for _, field := range e.FieldNames() {
		if msgs := e.Fields[field]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// FieldNames returns the fields with messages in sorted order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name, msgs := range e.Fields {
		if len(msgs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FirstMessages maps each field to its first message, which is what a form
// shows next to the input.
func (e *ValidationError) FirstMessages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for field, msgs := range e.Fields {
		if len(msgs) > 0 {
			out[field] = msgs[0]
		}
	}
	return out
}

// AuthorizationError is a 401 or 403. The caller clears the session and
// sends the user to login.
type AuthorizationError struct {
	Status  int
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status == http.StatusForbidden {
		return "you do not have permission to do that"
	}
	return "your session has expired, please log in again"
}

// NetworkError means no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("could not reach the server: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RequestError is any other non-2xx status or an unreadable body.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return "request failed"
}

// Kind classifies err into the failure taxonomy; "" for nil or foreign errors.
func Kind(err error) string {
	var (
		ve *ValidationError
		ae *AuthorizationError
		ne *NetworkError
		re *RequestError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ae):
		return KindAuthorization
	case errors.As(err, &ne):
		return KindNetwork
	case errors.As(err, &re):
		return KindRequest
	default:
		return ""
	}
}

// IsAuthorization reports whether err is a 401/403 from the backend.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// errorBody is the backend's failure shape. errors may be field->[]string
// or field->string depending on the endpoint.
type errorBody struct {
	Message string                     `json:"message"`
	Error   string                     `json:"error"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func parseErrorBody(body []byte) (string, map[string][]string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", nil
	}
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(eb.Error)
	}
	if len(eb.Errors) == 0 {
		return msg, nil
	}
	fields := make(map[string][]string, len(eb.Errors))
	for field, raw := range eb.Errors {
		var many []string
		if err := json.Unmarshal(raw, &many); err == nil {
			fields[field] = many
			continue
		}
		var one string
		if err := json.Unmarshal(raw, &one); err == nil && one != "" {
			fields[field] = []string{one}
		}
	}
	return msg, fields
}

// errorForStatus maps a non-2xx response to the taxonomy.
func errorForStatus(status int, body []byte) error {
	msg, fields := parseErrorBody(body)
	switch status {
	case http.StatusUnprocessableEntity:
		return &ValidationError{Message: msg, Fields: fields}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthorizationError{Status: status, Message: msg}
	default:
		return &RequestError{Status: status, Message: msg}
	}
}
