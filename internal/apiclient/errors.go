package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNetwork        Kind = "network"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindServer         Kind = "server"
	KindOther          Kind = "other"
)

const genericMessage = "request failed"

var (
	ErrNetwork         = errors.New("network error")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
)

// APIError is the only error shape that leaves the client for a completed
// request. Fields holds every list-of-strings field of a validation body.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnauthenticated:
		return e.Kind == KindAuthentication
	case ErrForbidden:
		return e.Kind == KindAuthorization
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// UserMessage is what a view renders. Authorization failures collapse to a
// generic message whatever the server said.
func (e *APIError) UserMessage() string {
	if e.Kind == KindAuthorization {
		return ErrForbidden.Error()
	}
	return e.Message
}

// Message returns the renderable text of any error coming out of the client.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}

func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServer
	}
	return KindOther
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: "Network error. Please try again.", Err: err}
}

func authError(message string, err error) *APIError {
	if message == "" {
		message = "Session expired. Please log in again."
	}
	return &APIError{Kind: KindAuthentication, Status: http.StatusUnauthorized, Message: message, Err: err}
}

func newResponseError(status int, body []byte) *APIError {
	message, fields := extractMessage(body)
	return &APIError{
		Kind:    KindForStatus(status),
		Status:  status,
		Message: message,
		Fields:  fields,
	}
}

type bodyField struct {
	name  string
	value json.RawMessage
}

// extractMessage picks the failure reason from a response body. Checked in
// order: a plain string body, "error", "detail", the first array-valued field,
// the first string-valued field. Object keys are walked in document order.
func extractMessage(body []byte) (string, map[string][]string) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return genericMessage, nil
	}

	if !json.Valid(trimmed) {
		return string(trimmed), nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil && s != "" {
			return s, nil
		}
		return genericMessage, nil
	case '{':
	default:
		return genericMessage, nil
	}

	fields, err := orderedFields(trimmed)
	if err != nil {
		return genericMessage, nil
	}

	lists := make(map[string][]string)
	for _, f := range fields {
		if values, ok := stringList(f.value); ok && len(values) > 0 {
			lists[f.name] = values
		}
	}
	if len(lists) == 0 {
		lists = nil
	}

	for _, name := range []string{"error", "detail"} {
		for _, f := range fields {
			if f.name != name {
				continue
			}
			if s, ok := firstText(f.value); ok {
				return s, lists
			}
		}
	}

	for _, f := range fields {
		if len(f.value) > 0 && f.value[0] == '[' {
			if s, ok := firstText(f.value); ok {
				return s, lists
			}
		}
	}

	for _, f := range fields {
		var s string
		if err := json.Unmarshal(f.value, &s); err == nil && s != "" {
			return s, lists
		}
	}

	return genericMessage, lists
}

func orderedFields(body []byte) ([]bodyField, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var fields []bodyField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, bodyField{name: name, value: bytes.TrimSpace(value)})
	}
	return fields, nil
}

// firstText returns a string value, or the first string of an array value.
func firstText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return "", false
	}
	if err := json.Unmarshal(items[0], &s); err == nil && s != "" {
		return s, true
	}
	return string(items[0]), true
}

func stringList(raw json.RawMessage) ([]string, bool) {
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false
	}
	return values, true
}
