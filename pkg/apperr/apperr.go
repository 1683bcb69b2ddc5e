package apperr

import "net/http"

// Error is the single operational error type for domain failures. It carries
// the HTTP status and a message that is safe to return to the client, plus
// optional itemized details (validation reasons, duplicate fields, ...).
// Anything that is not an *Error is treated as a programming error and is
// never surfaced to the client verbatim.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Is matches on status and message so a copy carrying details still compares
// equal to its sentinel under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status && t.Message == e.Message
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// WithDetails returns a copy of e carrying itemized details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Status: e.Status, Message: e.Message, Details: details}
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error     { return New(http.StatusConflict, message) }
