package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind string

const (
	// KindValidation is a client-side precondition failure; no request was sent.
	KindValidation Kind = "validation"

	// KindTransport is a network failure or a non-2xx response.
	KindTransport Kind = "transport"

	// KindTokenInvalid is a non-2xx response reporting the bearer token as
	// invalid or expired.
	KindTokenInvalid Kind = "token_invalid"
)

// TokenNotValidCode is the backend's machine-readable code for a rejected token.
const TokenNotValidCode = "token_not_valid"

// Error is returned by every failed gateway call.
type Error struct {
	Kind    Kind
	Status  int
	Message string

	// RawBody is the response text, empty when no response was received.
	RawBody string

	err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// NewValidationError builds a KindValidation error.
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Classify turns a non-2xx response into an Error. The message is the body
// text, or "Error <status>" when the body is empty. A body that is not JSON is
// not an error here.
func Classify(status int, body []byte) *Error {
	text := string(body)
	e := &Error{
		Kind:    KindTransport,
		Status:  status,
		Message: text,
		RawBody: text,
	}
	if text == "" {
		e.Message = fmt.Sprintf("Error %d", status)
	}

	var envelope struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Code == TokenNotValidCode {
		e.Kind = KindTokenInvalid
	}
	return e
}

// Detail returns the server-provided "detail" message from the raw body, or ""
// when the body is not a JSON object carrying one.
func (e *Error) Detail() string {
	if e == nil || e.RawBody == "" {
		return ""
	}
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.RawBody), &body); err != nil {
		return ""
	}
	s, _ := body.Detail.(string)
	return s
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind == kind
	}
	return false
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: err.Error(), err: err}
}
