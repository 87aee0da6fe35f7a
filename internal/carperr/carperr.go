// Package carperr implements the error taxonomy of spec §7: a closed set
// of error kinds surfaced as ordinary Go values rather than exceptions,
// with Internal errors assigned a fresh id for server-side correlation.
package carperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind is the closed family of error categories from spec §7.
type Kind int

const (
	// NameResolution: a Reference was not resolvable during qualification.
	NameResolution Kind = iota
	// TypeModel: a persistence error, or a reference to a non-IDL native
	// type at codec derivation time.
	TypeModel
	// CodecEncoding: a value could not be encoded (out of range, wrong
	// shape for the target type).
	CodecEncoding
	// CodecDecoding: a JSON value could not be decoded (missing required
	// field, out of range, unknown enumeration string).
	CodecDecoding
	// RoutingNotFound: PathMap.resolve found nothing, or left a non-empty
	// tail.
	RoutingNotFound
	// DispatchUnknownCall: the request named a call the translator does
	// not know.
	DispatchUnknownCall
	// DispatchResponseMismatch: no response writer's predicate matched
	// the value the receiver returned.
	DispatchResponseMismatch
	// ApplicationStructured: application-reported error carrying a bag
	// of string parameters.
	ApplicationStructured
	// Internal: anything else. Assigned a fresh id and logged.
	Internal
)

func (k Kind) String() string {
	switch k {
	case NameResolution:
		return "NameResolution"
	case TypeModel:
		return "TypeModel"
	case CodecEncoding:
		return "CodecEncoding"
	case CodecDecoding:
		return "CodecDecoding"
	case RoutingNotFound:
		return "RoutingNotFound"
	case DispatchUnknownCall:
		return "DispatchUnknownCall"
	case DispatchResponseMismatch:
		return "DispatchResponseMismatch"
	case ApplicationStructured:
		return "ApplicationStructured"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the single error type used across CARP's core. Everything
// user-facing is a local result (this value), never a panic or a
// control-flow jump, except for programmer errors documented per call.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Params carries the structured parameter bag of an
	// ApplicationStructured error (spec §6, the "app-error" body).
	Params map[string]string
	// ID is populated for Internal errors at construction time.
	ID uuid.UUID
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a plain error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around an existing cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewInternal mints an Internal error with a fresh correlation id, the
// only thing callers surface to the client (spec §6: `{"error": "<uuid>"}`).
func NewInternal(cause error, format string, args ...any) *Error {
	return &Error{Kind: Internal, Message: fmt.Sprintf(format, args...), Cause: cause, ID: uuid.New()}
}

// NewApplication builds an ApplicationStructured error carrying the
// application's parameter bag and message (spec §6, §7).
func NewApplication(message string, params map[string]string) *Error {
	return &Error{Kind: ApplicationStructured, Message: message, Params: params}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
