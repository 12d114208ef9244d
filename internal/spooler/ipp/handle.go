package ipp

import (
	"bytes"
	"context"
	"errors"

	goipp "github.com/OpenPrinting/goipp"

	"github.com/orrn/printgate/internal/spooler"
)

var (
	errNoJob       = errors.New("no job created")
	errAlreadySent = errors.New("document already sent")
)

// handle maps the document protocol onto IPP: StartDoc creates the job, Write
// sends its only document, and EndDoc closes a job that never got one.
// Pages have no IPP counterpart.
type handle struct {
	s       *Spooler
	printer string
	jobID   int
	format  string
	docName string
	sent    bool
	closed  bool
}

func (h *handle) check(op string) error {
	if h.closed {
		return spooler.Wrap(op, h.printer, 0, spooler.ErrInvalidHandle)
	}
	return nil
}

func (h *handle) StartDoc(ctx context.Context, doc spooler.DocInfo) error {
	if err := h.check("startdoc"); err != nil {
		return err
	}

	c := h.s.client
	req := c.newRequest(goipp.OpCreateJob)
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.PrinterURI(h.printer))))
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(c.cfg.RequestingUser)))
	req.Operation.Add(goipp.MakeAttribute("job-name", goipp.TagName, goipp.String(doc.Name)))

	resp, err := c.Send(ctx, req, h.printer, nil)
	if err != nil {
		return spooler.Wrap("create-job", h.printer, errorCode(err), err)
	}

	var id int
	for _, attrs := range groupsOf(resp, goipp.TagJobGroup) {
		if id = attrInt(attrs, "job-id", 0); id > 0 {
			break
		}
	}
	if id == 0 {
		return spooler.Wrap("create-job", h.printer, int(goipp.StatusErrorInternal), errNoJob)
	}

	h.jobID = id
	h.docName = doc.Name
	h.format = documentFormat(doc.DataType)
	return nil
}

func (h *handle) StartPage(ctx context.Context) error {
	if err := h.check("startpage"); err != nil {
		return err
	}
	if h.jobID == 0 {
		return spooler.Wrap("startpage", h.printer, 0, errNoJob)
	}
	return nil
}

func (h *handle) Write(ctx context.Context, p []byte) (int, error) {
	if err := h.check("write"); err != nil {
		return 0, err
	}
	if h.jobID == 0 {
		return 0, spooler.Wrap("send-document", h.printer, 0, errNoJob)
	}
	if h.sent {
		return 0, spooler.Wrap("send-document", h.printer, 0, errAlreadySent)
	}

	c := h.s.client
	req := c.newRequest(goipp.OpSendDocument)
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.PrinterURI(h.printer))))
	req.Operation.Add(goipp.MakeAttribute("job-id", goipp.TagInteger, goipp.Integer(h.jobID)))
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(c.cfg.RequestingUser)))
	req.Operation.Add(goipp.MakeAttribute("document-name", goipp.TagName, goipp.String(h.docName)))
	req.Operation.Add(goipp.MakeAttribute("document-format", goipp.TagMimeType, goipp.String(h.format)))
	req.Operation.Add(goipp.MakeAttribute("last-document", goipp.TagBoolean, goipp.Boolean(true)))

	if _, err := c.Send(ctx, req, h.printer, bytes.NewReader(p)); err != nil {
		return 0, spooler.Wrap("send-document", h.printer, errorCode(err), err)
	}
	h.sent = true
	return len(p), nil
}

func (h *handle) EndPage(ctx context.Context) error {
	return h.check("endpage")
}

func (h *handle) EndDoc(ctx context.Context) error {
	if err := h.check("enddoc"); err != nil {
		return err
	}
	if h.jobID == 0 || h.sent {
		return nil
	}

	c := h.s.client
	req := c.newRequest(goipp.OpCloseJob)
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.PrinterURI(h.printer))))
	req.Operation.Add(goipp.MakeAttribute("job-id", goipp.TagInteger, goipp.Integer(h.jobID)))
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(c.cfg.RequestingUser)))

	if _, err := c.Send(ctx, req, h.printer, nil); err != nil {
		return spooler.Wrap("close-job", h.printer, errorCode(err), err)
	}
	return nil
}

func (h *handle) Close() error {
	if err := h.check("close"); err != nil {
		return err
	}
	h.closed = true
	return nil
}
