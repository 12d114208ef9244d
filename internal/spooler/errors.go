package spooler

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupported   = errors.New("spooler backend not supported on this platform")
	ErrNotFound      = errors.New("printer not found")
	ErrJobNotFound   = errors.New("job not found")
	ErrInvalidHandle = errors.New("invalid printer handle")
)

// Error is a failed spooler call. Code carries the backend's numeric status
// (a Win32 error, an IPP status code, or an injected code).
type Error struct {
	Op      string
	Printer string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Printer == "" {
		return fmt.Sprintf("%s: code %d: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s: code %d: %v", e.Op, e.Printer, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code extracts the backend code from err, or 0 when there is none.
func Code(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Wrap builds an *Error. It returns nil when err is nil.
func Wrap(op, printer string, code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Printer: printer, Code: code, Err: err}
}
