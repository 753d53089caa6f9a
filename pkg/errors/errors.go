// Package errors provides structured error handling for arrowframe.
//
// Every failure raised by the conversion engine is an *Error carrying an
// ErrorType, so callers can tell an inference failure from a zero-copy
// refusal or an out-of-range dictionary index without string matching:
//
//	tbl, err := convert.TableFromFrame(df)
//	if errors.IsType(err, errors.ErrorTypeTypeInference) {
//	    // the frame holds values that do not reconcile into one Arrow type
//	}
//
// Errors are reported at the point of detection and are never downgraded to
// warnings.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal engine errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInvalid represents malformed input such as ragged frames or
	// unreadable schema metadata
	ErrorTypeInvalid ErrorType = "invalid"
	// ErrorTypeTypeInference represents irreconcilable or unsupported value kinds
	ErrorTypeTypeInference ErrorType = "type_inference"
	// ErrorTypeZeroCopy represents a failed zero-copy admissibility check
	ErrorTypeZeroCopy ErrorType = "zero_copy"
	// ErrorTypeBounds represents a dictionary index outside its dictionary
	ErrorTypeBounds ErrorType = "bounds"
	// ErrorTypeSchemaMismatch represents duplicate names or an explicit schema
	// that cannot be honoured
	ErrorTypeSchemaMismatch ErrorType = "schema_mismatch"
	// ErrorTypeFixedWidth represents a fixed-size binary length violation
	ErrorTypeFixedWidth ErrorType = "fixed_width"
	// ErrorTypeCapacity represents a value too large to fit any chunk
	ErrorTypeCapacity ErrorType = "capacity"
	// ErrorTypeIO represents failures reading or writing Arrow and Parquet
	// files
	ErrorTypeIO ErrorType = "io"
)

// ErrNotImplemented marks conversions that are recognised but deliberately
// unsupported, such as timedelta columns. It is carried as the Cause of a
// type_inference error.
var ErrNotImplemented = errors.New("not implemented")

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail previously attached with WithDetail.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Column annotates err with the column it was raised for. Structured errors
// keep their type so callers can still classify them; anything else becomes
// an internal error.
func Column(err error, name string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if _, ok := e.Details["column"]; !ok {
			e.WithDetail("column", name)
		}
		return err
	}
	return Wrap(err, ErrorTypeInternal, "column conversion failed").WithDetail("column", name)
}

// IsType checks if the outermost structured error in the chain is of the
// given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost structured error in the chain, or
// the empty string.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Type
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// captureStack captures the current call stack
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
