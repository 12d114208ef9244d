package core

import (
	"strings"
)

// Command is a job control command accepted by the dispatcher.
type Command int

const (
	CommandPurge Command = iota + 1
	CommandPause
	CommandResume
)

var commandNames = map[string]Command{
	"purge":  CommandPurge,
	"pause":  CommandPause,
	"resume": CommandResume,
}

// ParseCommand decodes a command name, ignoring case and surrounding space.
func ParseCommand(s string) (Command, bool) {
	c, ok := commandNames[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

func IsKnownCommand(s string) bool {
	_, ok := ParseCommand(s)
	return ok
}

func (c Command) String() string {
	switch c {
	case CommandPurge:
		return "purge"
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	default:
		return "unknown"
	}
}

// DataType is a spool data type in its canonical spelling.
type DataType string

const (
	DataTypeRaw           DataType = "RAW"
	DataTypeText          DataType = "TEXT"
	DataTypeRawFFAppended DataType = "RAW [FF appended]"
	DataTypeRawFFAuto     DataType = "RAW [FF auto]"
	DataTypeEMF1003       DataType = "NT EMF 1.003"
	DataTypeEMF1006       DataType = "NT EMF 1.006"
	DataTypeEMF1007       DataType = "NT EMF 1.007"
	DataTypeEMF1008       DataType = "NT EMF 1.008"
)

var dataTypes = map[string]DataType{}

func init() {
	for _, dt := range []DataType{
		DataTypeRaw, DataTypeText, DataTypeRawFFAppended, DataTypeRawFFAuto,
		DataTypeEMF1003, DataTypeEMF1006, DataTypeEMF1007, DataTypeEMF1008,
	} {
		dataTypes[strings.ToUpper(string(dt))] = dt
	}
}

// ParseDataType returns the canonical data type for s, matched without regard
// to case or surrounding space.
func ParseDataType(s string) (DataType, bool) {
	dt, ok := dataTypes[strings.ToUpper(strings.TrimSpace(s))]
	return dt, ok
}

func IsKnownDataType(s string) bool {
	_, ok := ParseDataType(s)
	return ok
}

// ResolveDataType picks the data type for a submission. A recognized request
// value wins; otherwise the printer's default is used, and RAW when the
// printer reports none.
func ResolveDataType(requested, printerDefault string) DataType {
	if dt, ok := ParseDataType(requested); ok {
		return dt
	}
	if dt, ok := ParseDataType(printerDefault); ok {
		return dt
	}
	if d := strings.TrimSpace(printerDefault); d != "" {
		return DataType(d)
	}
	return DataTypeRaw
}
