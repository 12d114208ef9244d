package core

import (
	"errors"
	"fmt"
	"strings"
)

// PrintMessage renders the response text for a print submission.
func PrintMessage(res PrintResult, err error) string {
	if err == nil {
		return fmt.Sprintf("Print request sent to %s as %s data.", res.Printer, res.DataType)
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		switch ve.Kind {
		case UnknownPrinter:
			return fmt.Sprintf("%s is not found in the print service.", ve.Value)
		case InvalidData:
			return "Print request 'Data' could not be decoded as base64."
		default:
			return "Print requests requires a 'Printer', 'Name' and 'Data' parameters."
		}
	}

	var se *SpoolError
	if errors.As(err, &se) {
		return fmt.Sprintf("An error occurred during print request: %d", se.Code)
	}
	return fmt.Sprintf("An error occurred during print request: %v", err)
}

// CommandMessage renders the response text for a command submission.
func CommandMessage(res CommandResult, err error) string {
	if err == nil {
		return fmt.Sprintf("%d print jobs are affected by '%s' on '%s'.",
			res.Affected, strings.ToUpper(res.Command.String()), upper(res.Printer))
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		switch ve.Kind {
		case BlankPrinter:
			return "Command requires a 'Printer' parameter to have a value."
		case UnknownCommand:
			return fmt.Sprintf("'%s' command is not supported.", upper(ve.Value))
		case UnknownPrinter:
			return fmt.Sprintf("'%s' is not found in the print service.", upper(ve.Value))
		default:
			return "Command requests requires a 'Command' and 'Printer' parameters."
		}
	}

	return fmt.Sprintf("An error occurred during command request: %v", err)
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
