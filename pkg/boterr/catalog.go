package boterr

import (
	"errors"
	"fmt"
	"strings"
)

// Code defines a canonical error code used across handlers.
type Code string

const (
	// Validation & Input
	Validation    Code = "VALIDATION"
	CursorInvalid Code = "CURSOR_INVALID"
	UnknownTag    Code = "UNKNOWN_TAG"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"

	// Store & upstream
	StoreFailed       Code = "STORE_FAILED"
	CharacterNotFound Code = "CHARACTER_NOT_FOUND"
	FetchFailed       Code = "FETCH_FAILED"
	ImportFailed      Code = "IMPORT_FAILED"

	Internal Code = "INTERNAL"
)

// Entry documents a code's standard user-facing message and retry semantics.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "Those sort options are not valid.", Retryable: false},
	CursorInvalid: {Code: CursorInvalid, Message: "This button is no longer valid. Run the sort command again.", Retryable: false},
	UnknownTag:    {Code: UnknownTag, Message: "That tag is not recognised.", Retryable: false},

	BusyResource: {Code: BusyResource, Message: "The bot is busy right now. Please try again shortly.", Retryable: true},
	Timeout:      {Code: Timeout, Message: "That took too long to answer. Please try again.", Retryable: true},

	StoreFailed:       {Code: StoreFailed, Message: "Something went wrong while looking up items.", Retryable: true},
	CharacterNotFound: {Code: CharacterNotFound, Message: "That character was not found.", Retryable: false},
	FetchFailed:       {Code: FetchFailed, Message: "The character page could not be loaded.", Retryable: true},
	ImportFailed:      {Code: ImportFailed, Message: "The item catalog could not be imported.", Retryable: false},

	Internal: {Code: Internal, Message: "Something went wrong.", Retryable: false},
}

// Error carries a code, an optional user-visible message override, and a cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = Lookup(e.Code).Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error for code with a message shown to the user. An empty
// message falls back to the catalog entry.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: strings.TrimSpace(message)}
}

// Newf formats the user-visible message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code to cause. The user only sees the catalog message.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

// Lookup returns the catalog entry for code, or the Internal entry when unknown.
func Lookup(code Code) Entry {
	if e, ok := catalog[code]; ok {
		return e
	}
	return catalog[Internal]
}

// CodeOf extracts the code of err, or Internal.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return Internal
}

// UserMessage returns the text to show the requester for err. Causes are never
// included, so stack traces and driver errors stay in the logs.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *Error
	if !errors.As(err, &be) {
		return catalog[Internal].Message
	}
	if be.Message != "" {
		return be.Message
	}
	return Lookup(be.Code).Message
}

// Retryable reports whether the requester may simply try again.
func Retryable(err error) bool {
	return Lookup(CodeOf(err)).Retryable
}
