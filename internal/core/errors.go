package core

import (
	"errors"
	"fmt"
)

var (
	ErrPrinterUnavailable = errors.New("printer unavailable")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrShortWrite         = errors.New("short write")
)

// CodeWriteFault is reported for a write the spooler accepted only in part
// without returning an error code of its own (ERROR_WRITE_FAULT).
const CodeWriteFault = 29

// SpoolError is a failed print submission. Code is the last error code the
// spooler reported.
type SpoolError struct {
	Op      string
	Printer string
	Code    int
	Err     error
}

func (e *SpoolError) Error() string {
	return fmt.Sprintf("spool %s on %s failed (code %d): %v", e.Op, e.Printer, e.Code, e.Err)
}

func (e *SpoolError) Unwrap() error {
	return e.Err
}

type ValidationKind int

const (
	MissingPrintFields ValidationKind = iota + 1
	MissingCommandFields
	BlankPrinter
	UnknownCommand
	UnknownPrinter
	InvalidData
)

// ValidationError rejects a request before any spooler call is made. Value
// holds the offending input, when there is one.
type ValidationError struct {
	Kind  ValidationKind
	Value string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingPrintFields:
		return "missing print request fields"
	case MissingCommandFields:
		return "missing command request fields"
	case BlankPrinter:
		return "printer is blank"
	case UnknownCommand:
		return fmt.Sprintf("unknown command %q", e.Value)
	case UnknownPrinter:
		return fmt.Sprintf("unknown printer %q", e.Value)
	case InvalidData:
		return fmt.Sprintf("invalid print data: %s", e.Value)
	default:
		return "invalid request"
	}
}
