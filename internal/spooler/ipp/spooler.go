package ipp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goipp "github.com/OpenPrinting/goipp"

	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

var printerAttributes = []string{
	"printer-name",
	"printer-uri-supported",
	"device-uri",
	"printer-make-and-model",
	"printer-device-id",
	"printer-info",
	"printer-location",
	"printer-is-shared",
	"printer-is-accepting-jobs",
	"printer-type",
	"printer-state",
	"printer-state-reasons",
	"document-format-default",
}

var jobAttributes = []string{
	"job-id",
	"job-name",
	"document-name-supplied",
	"job-state",
	"job-state-reasons",
	"time-at-creation",
}

type Spooler struct {
	client *Client
	log    logger.Logger
}

func New(cfg Config, log logger.Logger) *Spooler {
	return &Spooler{client: NewClient(cfg), log: log.WithComponent("ipp")}
}

func (s *Spooler) Name() string { return "ipp" }

func keywords(name string, values []string) goipp.Attribute {
	vals := make([]goipp.Value, 0, len(values))
	for _, v := range values {
		vals = append(vals, goipp.String(v))
	}
	return goipp.MakeAttr(name, goipp.TagKeyword, vals[0], vals[1:]...)
}

func (s *Spooler) listPrinters(ctx context.Context, extended bool) ([]goipp.Attributes, error) {
	req := s.client.newRequest(goipp.OpCupsGetPrinters)
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(s.client.cfg.RequestingUser)))
	if extended {
		req.Operation.Add(keywords("requested-attributes", []string{"all"}))
	} else {
		req.Operation.Add(keywords("requested-attributes", printerAttributes))
	}

	resp, err := s.client.Send(ctx, req, "", nil)
	if err != nil {
		if isNotFound(err) {
			// CUPS answers not-found when no printers are installed
			return nil, nil
		}
		return nil, spooler.Wrap("cups-get-printers", "", errorCode(err), err)
	}
	return groupsOf(resp, goipp.TagPrinterGroup), nil
}

func (s *Spooler) Printers(ctx context.Context) ([]spooler.Printer, error) {
	groups, err := s.listPrinters(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]spooler.Printer, 0, len(groups))
	for _, attrs := range groups {
		out = append(out, printerFromAttrs(attrs))
	}
	return out, nil
}

func (s *Spooler) Queues(ctx context.Context) ([]spooler.Queue, error) {
	groups, err := s.listPrinters(ctx, false)
	if err != nil {
		return nil, err
	}

	out := make([]spooler.Queue, 0, len(groups))
	for _, attrs := range groups {
		p := printerFromAttrs(attrs)
		jobs, err := s.jobs(ctx, p.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, spooler.Queue{
			Printer:  p.Name,
			Location: p.Location,
			Driver:   p.Driver,
			Port:     p.Port,
			Status: queueStatus(
				attrInt(attrs, "printer-state", printerIdle),
				attrStrings(attrs, "printer-state-reasons"),
			),
			Jobs: jobs,
		})
	}
	return out, nil
}

func (s *Spooler) jobs(ctx context.Context, printer string) ([]spooler.Job, error) {
	req := s.client.newRequest(goipp.OpGetJobs)
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(s.client.PrinterURI(printer))))
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(s.client.cfg.RequestingUser)))
	req.Operation.Add(goipp.MakeAttribute("which-jobs", goipp.TagKeyword, goipp.String("not-completed")))
	req.Operation.Add(keywords("requested-attributes", jobAttributes))

	resp, err := s.client.Send(ctx, req, printer, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, spooler.Wrap("get-jobs", printer, errorCode(err), err)
	}

	groups := groupsOf(resp, goipp.TagJobGroup)
	jobs := make([]spooler.Job, 0, len(groups))
	for i, attrs := range groups {
		jobs = append(jobs, jobFromAttrs(attrs, i+1))
	}
	return jobs, nil
}

func (s *Spooler) Open(ctx context.Context, printer string) (spooler.Handle, error) {
	req := s.client.newRequest(goipp.OpGetPrinterAttributes)
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(s.client.PrinterURI(printer))))
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(s.client.cfg.RequestingUser)))
	req.Operation.Add(keywords("requested-attributes", []string{"printer-name", "printer-is-accepting-jobs"}))

	if _, err := s.client.Send(ctx, req, printer, nil); err != nil {
		if isNotFound(err) {
			err = errors.Join(spooler.ErrNotFound, err)
		}
		return nil, spooler.Wrap("open", printer, errorCode(err), err)
	}

	return &handle{s: s, printer: printer}, nil
}

func (s *Spooler) ControlJob(ctx context.Context, printer, jobID string, ctl spooler.JobControl) error {
	id, err := strconv.Atoi(jobID)
	if err != nil {
		return spooler.Wrap("control", printer, int(goipp.StatusErrorNotFound), spooler.ErrJobNotFound)
	}

	var op goipp.Op
	switch ctl {
	case spooler.JobCancel:
		op = goipp.OpCancelJob
	case spooler.JobPause:
		op = goipp.OpHoldJob
	case spooler.JobResume:
		op = goipp.OpReleaseJob
	default:
		return spooler.Wrap("control", printer, int(goipp.StatusErrorOperationNotSupported),
			fmt.Errorf("unsupported job control %d", ctl))
	}

	req := s.client.newRequest(op)
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(s.client.PrinterURI(printer))))
	req.Operation.Add(goipp.MakeAttribute("job-id", goipp.TagInteger, goipp.Integer(id)))
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String(s.client.cfg.RequestingUser)))

	if _, err := s.client.Send(ctx, req, printer, nil); err != nil {
		if isNotFound(err) {
			err = errors.Join(spooler.ErrJobNotFound, err)
		}
		return spooler.Wrap(ctl.String(), printer, errorCode(err), err)
	}

	s.log.Debug().Str("printer", printer).Str("job_id", jobID).Str("control", ctl.String()).Msg("Job control applied")
	return nil
}
