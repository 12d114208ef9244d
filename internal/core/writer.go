package core

import (
	"context"
	"errors"

	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

// Writer sends a raw payload to a printer as a single one-page document.
type Writer struct {
	sp  spooler.Spooler
	log logger.Logger
}

func NewWriter(sp spooler.Spooler, log logger.Logger) *Writer {
	return &Writer{sp: sp, log: log.WithComponent("writer")}
}

// Spool writes payload to printer. It returns nil only when the document and
// page were started and every byte was accepted. EndPage and EndDoc are
// attempted whenever the step before them ran, and their failures are logged
// without changing the result. The handle is always closed once opened.
func (w *Writer) Spool(ctx context.Context, printer, document string, payload []byte, dataType DataType) error {
	h, err := w.sp.Open(ctx, printer)
	if err != nil {
		return w.fail("open", printer, errors.Join(ErrPrinterUnavailable, err))
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			w.log.Warn().Err(cerr).Str("printer", printer).Msg("Failed to close printer handle")
		}
	}()

	// the spool session finishes even if the caller's deadline has passed
	cleanup := context.WithoutCancel(ctx)

	if err := h.StartDoc(ctx, spooler.DocInfo{Name: document, DataType: string(dataType)}); err != nil {
		return w.fail("startdoc", printer, err)
	}
	defer func() {
		if derr := h.EndDoc(cleanup); derr != nil {
			w.log.Warn().Err(derr).Str("printer", printer).Msg("Failed to end document")
		}
	}()

	if err := h.StartPage(ctx); err != nil {
		return w.fail("startpage", printer, err)
	}
	defer func() {
		if perr := h.EndPage(cleanup); perr != nil {
			w.log.Warn().Err(perr).Str("printer", printer).Msg("Failed to end page")
		}
	}()

	n, err := h.Write(ctx, payload)
	if err != nil {
		return w.fail("write", printer, err)
	}
	if n != len(payload) {
		w.log.Warn().
			Str("printer", printer).
			Int("written", n).
			Int("expected", len(payload)).
			Msg("Short write")
		return &SpoolError{Op: "write", Printer: printer, Code: CodeWriteFault, Err: ErrShortWrite}
	}

	w.log.Debug().
		Str("printer", printer).
		Str("document", document).
		Str("data_type", string(dataType)).
		Int("bytes", n).
		Msg("Document spooled")

	return nil
}

func (w *Writer) fail(op, printer string, err error) error {
	return &SpoolError{Op: op, Printer: printer, Code: spooler.Code(err), Err: err}
}
