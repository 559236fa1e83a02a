package core

import (
	"errors"
	"net/http"

	"symptrack/pkg"
)

// Messages returned to clients.  MisconfiguredMarker must stay a substring
// of MsgMisconfigured: older clients only look for it in the text.
const (
	MsgMissingInput     = "Symptoms are required"
	MsgMisconfigured    = "Gemini API key not configured"
	MsgProviderFailed   = "Failed to analyze symptoms"
	MisconfiguredMarker = "not configured"
)

// Error is a classified analysis failure.  Message is safe to show to end
// users; Err keeps the underlying cause for logs and is never serialised.
type Error struct {
	Code    pkg.ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error code to the HTTP status the endpoint answers with.
func (e *Error) Status() int {
	if e.Code == pkg.CodeMissingInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Response renders the error as the wire body.
func (e *Error) Response() pkg.ErrorResponse {
	return pkg.ErrorResponse{Error: e.Message, Code: e.Code}
}

var (
	errMissingInput  = &Error{Code: pkg.CodeMissingInput, Message: MsgMissingInput}
	errMisconfigured = &Error{Code: pkg.CodeMisconfigured, Message: MsgMisconfigured}
)

func providerError(cause error) *Error {
	return &Error{Code: pkg.CodeProviderError, Message: MsgProviderFailed, Err: cause}
}

// AsError classifies any error as an *Error.  Unknown errors become a
// generic provider failure.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return providerError(err)
}
