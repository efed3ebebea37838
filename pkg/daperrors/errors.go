// Package daperrors provides the structured error taxonomy shared by every
// DAP2 component: the variable model, the wire codec, the projection algebra
// and the attribute store.
//
// # Overview
//
// Every error carries two classifications:
//   - an ErrorType naming the failure kind (data read, bad semantics, ...)
//   - a numeric protocol Code, the value a DAP2 server would place in an
//     Error response for the same condition
//
// plus a human-readable message, an optional cause, key-value details and a
// stack captured at the creation point.
//
// # Basic Usage
//
//	// Create a new error
//	err := daperrors.New(daperrors.ErrorTypeBadSemantics, "duplicate member name").
//	    WithDetail("container", "station").
//	    WithDetail("name", "lat")
//
//	// Wrap a stream failure
//	if _, err := io.ReadFull(r, buf); err != nil {
//	    return daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "truncated string payload")
//	}
//
// # Propagation
//
// Codec and validation operations fail fast: the first error aborts the call
// and is returned as is. Callers discard partially populated values.
//
// # Thread Safety
//
// Error instances are not thread-safe for modification. Finish adding
// details before sharing an error across goroutines.
package daperrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of a DAP2 failure.
type ErrorType string

const (
	// ErrorTypeMalformedExpression represents a constraint or attribute
	// operation that references something that cannot exist
	ErrorTypeMalformedExpression ErrorType = "malformed_expression"
	// ErrorTypeNoSuchVariable represents a member lookup miss
	ErrorTypeNoSuchVariable ErrorType = "no_such_variable"
	// ErrorTypeNoSuchAttribute represents an attribute lookup miss
	ErrorTypeNoSuchAttribute ErrorType = "no_such_attribute"
	// ErrorTypeInvalidDimension represents projection bounds that fail validation
	ErrorTypeInvalidDimension ErrorType = "invalid_dimension"
	// ErrorTypeBadSemantics represents a structurally invalid declaration
	ErrorTypeBadSemantics ErrorType = "bad_semantics"
	// ErrorTypeDataRead represents a malformed binary payload or a cancelled transfer
	ErrorTypeDataRead ErrorType = "data_read"
	// ErrorTypeDataWrite represents a failure of the underlying sink while encoding
	ErrorTypeDataWrite ErrorType = "data_write"
	// ErrorTypeUnexpectedEOF represents a stream that ended where a value was expected
	ErrorTypeUnexpectedEOF ErrorType = "unexpected_eof"
	// ErrorTypeConflict represents one physical dimension projected twice with different bounds
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeUnresolvedAlias represents an alias whose target does not exist
	ErrorTypeUnresolvedAlias ErrorType = "unresolved_alias"
	// ErrorTypeAttributeBadValue represents an attribute value that does not fit its type
	ErrorTypeAttributeBadValue ErrorType = "attribute_bad_value"
	// ErrorTypeInternal represents programming errors inside the codec
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Code is the numeric error code carried by a DAP2 Error response.
type Code int

const (
	CodeUndefined       Code = -1
	CodeUnknown         Code = 0
	CodeNoSuchFile      Code = 1
	CodeNoSuchVariable  Code = 2
	CodeMalformedExpr   Code = 3
	CodeNoAuthorization Code = 4
	CodeCannotReadFile  Code = 5
)

// String returns the protocol spelling of the code.
func (c Code) String() string {
	switch c {
	case CodeUndefined:
		return "undefined_error"
	case CodeUnknown:
		return "unknown_error"
	case CodeNoSuchFile:
		return "no_such_file"
	case CodeNoSuchVariable:
		return "no_such_variable"
	case CodeMalformedExpr:
		return "malformed_expr"
	case CodeNoAuthorization:
		return "no_authorization"
	case CodeCannotReadFile:
		return "cannot_read_file"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Code returns the protocol code reported for errors of this type.
func (t ErrorType) Code() Code {
	switch t {
	case ErrorTypeMalformedExpression, ErrorTypeUnresolvedAlias,
		ErrorTypeInvalidDimension, ErrorTypeBadSemantics,
		ErrorTypeConflict, ErrorTypeAttributeBadValue:
		return CodeMalformedExpr
	case ErrorTypeNoSuchVariable, ErrorTypeNoSuchAttribute:
		return CodeNoSuchVariable
	case ErrorTypeDataRead, ErrorTypeUnexpectedEOF:
		return CodeCannotReadFile
	case ErrorTypeInternal, ErrorTypeConfig, ErrorTypeDataWrite:
		return CodeUnknown
	default:
		return CodeUndefined
	}
}

// Error represents a structured DAP2 error.
//
// Fields:
//   - Type: the failure kind
//   - Code: the numeric protocol code, derived from Type unless overridden
//   - Message: human-readable description
//   - Cause: the underlying error, usually an io error
//   - Details: key-value context (variable names, bounds, offsets)
//   - Stack: call stack at the point of creation
type Error struct {
	Type    ErrorType
	Code    Code
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
//
// Example:
//
//	err := daperrors.New(daperrors.ErrorTypeInvalidDimension, "stop must be less than the dimension size").
//	    WithDetail("dimension", "time").
//	    WithDetail("stop", 12).
//	    WithDetail("size", 10)
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCode overrides the protocol code derived from the error type.
func (e *Error) WithCode(code Code) *Error {
	e.Code = code
	return e
}

// New creates a new error with the given type and message, capturing the
// call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Code:    errType.Code(),
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Code:    errType.Code(),
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error, preserving it as the cause. If the error is
// already a structured Error, its stack is preserved. Returns nil if err is nil.
//
// Example:
//
//	if _, err := io.ReadFull(src, pad[:n]); err != nil {
//	    return daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "failed to read string padding").
//	        WithDetail("variable", name)
//	}
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Code:    errType.Code(),
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Code:    errType.Code(),
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, errType, fmt.Sprintf(format, args...))
	if wrapped.Stack == nil {
		wrapped.Stack = captureStack(2)
	}
	return wrapped
}

// IsType reports whether the outermost structured error in err's chain has
// the given type.
//
// Example:
//
//	if daperrors.IsType(err, daperrors.ErrorTypeUnexpectedEOF) {
//	    // the server closed the stream at a value boundary
//	}
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost structured error in err's chain,
// or the empty type if there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Type
}

// CodeOf returns the protocol code for err. Errors that are not structured
// report CodeUnknown; nil reports CodeUndefined.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUndefined
	}
	var e *Error
	if !errors.As(err, &e) {
		return CodeUnknown
	}
	return e.Code
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
