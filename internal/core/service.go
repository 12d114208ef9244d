package core

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

// PrintRequest is a print submission. Nil fields were absent from the request.
type PrintRequest struct {
	Printer      *string `json:"Printer"`
	Name         *string `json:"Name"`
	Data         *string `json:"Data"`
	DataType     *string `json:"DataType,omitempty"`
	DataEncoding *string `json:"DataEncoding,omitempty"`
}

type PrintResult struct {
	Printer  string
	Document string
	DataType DataType
	Bytes    int
}

// CommandRequest is a job command submission. Nil fields were absent.
type CommandRequest struct {
	Command      *string `json:"Command"`
	Printer      *string `json:"Printer"`
	JobID        *string `json:"JobId,omitempty"`
	DocumentName *string `json:"DocumentName,omitempty"`
}

// Service validates submissions and runs them against the spooler.
type Service struct {
	Directory  *Directory
	Inspector  *Inspector
	Validator  *Validator
	Writer     *Writer
	Dispatcher *Dispatcher
	log        logger.Logger
}

func NewService(sp spooler.Spooler, prober StatusProber, log logger.Logger) *Service {
	dir := NewDirectory(sp)
	return &Service{
		Directory:  dir,
		Inspector:  NewInspector(sp, prober, log),
		Validator:  NewValidator(dir),
		Writer:     NewWriter(sp, log),
		Dispatcher: NewDispatcher(sp, log),
		log:        log.WithComponent("service"),
	}
}

// Print validates req and spools it. Validation failures are returned as
// *ValidationError and spool failures as *SpoolError.
func (s *Service) Print(ctx context.Context, req PrintRequest) (PrintResult, error) {
	if req.Printer == nil || req.Name == nil || req.Data == nil {
		return PrintResult{}, &ValidationError{Kind: MissingPrintFields}
	}

	res := PrintResult{Printer: *req.Printer, Document: *req.Name}

	p, ok, err := s.Directory.Lookup(ctx, *req.Printer)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, &ValidationError{Kind: UnknownPrinter, Value: *req.Printer}
	}

	payload := []byte(*req.Data)
	if req.DataEncoding != nil && strings.EqualFold(strings.TrimSpace(*req.DataEncoding), "base64") {
		payload, err = base64.StdEncoding.DecodeString(*req.Data)
		if err != nil {
			return res, &ValidationError{Kind: InvalidData, Value: err.Error()}
		}
	}

	requested := ""
	if req.DataType != nil {
		requested = *req.DataType
	}
	res.DataType = ResolveDataType(requested, p.DefaultDataType)
	if requested != "" && !IsKnownDataType(requested) {
		s.log.Debug().
			Str("printer", p.Name).
			Str("requested", requested).
			Str("data_type", string(res.DataType)).
			Msg("Unknown data type, using printer default")
	}

	if err := s.Writer.Spool(ctx, p.Name, res.Document, payload, res.DataType); err != nil {
		return res, err
	}
	res.Bytes = len(payload)

	return res, nil
}

// Command validates req and dispatches it. Zero affected jobs is not an error.
func (s *Service) Command(ctx context.Context, req CommandRequest) (CommandResult, error) {
	if req.Command == nil || req.Printer == nil {
		return CommandResult{}, &ValidationError{Kind: MissingCommandFields}
	}

	res := CommandResult{Printer: *req.Printer}

	cmd, ok := ParseCommand(*req.Command)
	if !ok {
		return res, &ValidationError{Kind: UnknownCommand, Value: *req.Command}
	}
	res.Command = cmd

	if strings.TrimSpace(*req.Printer) == "" {
		return res, &ValidationError{Kind: BlankPrinter}
	}

	exists, err := s.Validator.PrinterExists(ctx, *req.Printer)
	if err != nil {
		return res, err
	}
	if !exists {
		return res, &ValidationError{Kind: UnknownPrinter, Value: *req.Printer}
	}

	n, err := s.Dispatcher.Dispatch(ctx, cmd, *req.Printer, NewSelector(req.JobID, req.DocumentName))
	res.Affected = n
	return res, err
}

func (s *Service) ListPrinters(ctx context.Context) ([]spooler.Printer, error) {
	return s.Directory.ListPrinters(ctx)
}

func (s *Service) ListQueues(ctx context.Context) ([]spooler.Queue, error) {
	return s.Inspector.ListQueues(ctx)
}
