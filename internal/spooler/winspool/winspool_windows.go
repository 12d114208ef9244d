//go:build windows

package winspool

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

var (
	modWinspool      = windows.NewLazySystemDLL("winspool.drv")
	procOpenPrinterW = modWinspool.NewProc("OpenPrinterW")
	procClosePrinter = modWinspool.NewProc("ClosePrinter")
	procStartDoc     = modWinspool.NewProc("StartDocPrinterW")
	procEndDoc       = modWinspool.NewProc("EndDocPrinter")
	procStartPage    = modWinspool.NewProc("StartPagePrinter")
	procEndPage      = modWinspool.NewProc("EndPagePrinter")
	procWritePrinter = modWinspool.NewProc("WritePrinter")
	procEnumPrinters = modWinspool.NewProc("EnumPrintersW")
	procEnumJobs     = modWinspool.NewProc("EnumJobsW")
	procSetJob       = modWinspool.NewProc("SetJobW")
)

const (
	printerEnumLocal       = 0x00000002
	printerEnumConnections = 0x00000004
	maxJobs                = 0xFFFF
)

type docInfo1 struct {
	DocName    *uint16
	OutputFile *uint16
	Datatype   *uint16
}

type printerInfo2 struct {
	ServerName      *uint16
	PrinterName     *uint16
	ShareName       *uint16
	PortName        *uint16
	DriverName      *uint16
	Comment         *uint16
	Location        *uint16
	DevMode         uintptr
	SepFile         *uint16
	PrintProcessor  *uint16
	Datatype        *uint16
	Parameters      *uint16
	SecurityDesc    uintptr
	Attributes      uint32
	Priority        uint32
	DefaultPriority uint32
	StartTime       uint32
	UntilTime       uint32
	Status          uint32
	Jobs            uint32
	AveragePPM      uint32
}

type jobInfo1 struct {
	JobID        uint32
	PrinterName  *uint16
	MachineName  *uint16
	UserName     *uint16
	Document     *uint16
	Datatype     *uint16
	StatusText   *uint16
	Status       uint32
	Priority     uint32
	Position     uint32
	TotalPages   uint32
	PagesPrinted uint32
	Submitted    windows.Systemtime
}

type Spooler struct {
	log logger.Logger
}

func New(log logger.Logger) (spooler.Spooler, error) {
	if err := modWinspool.Load(); err != nil {
		return nil, errors.Join(spooler.ErrUnsupported, err)
	}
	return &Spooler{log: log.WithComponent("winspool")}, nil
}

func (s *Spooler) Name() string { return "winspool" }

// winErr wraps a failed winspool call with its Win32 error code.
func winErr(op, printer string, err error) error {
	code := 0
	var errno windows.Errno
	if errors.As(err, &errno) {
		code = int(errno)
	}
	if code == errInvalidPrinterName {
		err = errors.Join(spooler.ErrNotFound, err)
	}
	return spooler.Wrap(op, printer, code, err)
}

type printerEntry struct {
	printer   spooler.Printer
	processor string
	status    uint32
}

func enumPrinters() ([]printerEntry, error) {
	flags := printerEnumLocal | printerEnumConnections
	level := uint32(2)
	var needed, returned uint32

	r1, _, err := procEnumPrinters.Call(
		uintptr(flags), 0, uintptr(level), 0, 0,
		uintptr(unsafe.Pointer(&needed)),
		uintptr(unsafe.Pointer(&returned)),
	)
	if needed == 0 {
		if r1 == 0 && !errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) && err != windows.Errno(0) {
			return nil, winErr("enumprinters", "", err)
		}
		return nil, nil
	}

	buf := make([]byte, needed)
	r1, _, err = procEnumPrinters.Call(
		uintptr(flags), 0, uintptr(level),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(needed),
		uintptr(unsafe.Pointer(&needed)),
		uintptr(unsafe.Pointer(&returned)),
	)
	if r1 == 0 {
		return nil, winErr("enumprinters", "", err)
	}

	return decodePrinters(buf, returned), nil
}

// decodePrinters reads returned PRINTER_INFO_2 records from the head of buf.
func decodePrinters(buf []byte, returned uint32) []printerEntry {
	if returned == 0 || len(buf) == 0 {
		return nil
	}
	out := make([]printerEntry, 0, returned)
	infos := unsafe.Slice((*printerInfo2)(unsafe.Pointer(&buf[0])), returned)
	for i := range infos {
		info := &infos[i]
		p := spooler.Printer{
			Name:            windows.UTF16PtrToString(info.PrinterName),
			Port:            windows.UTF16PtrToString(info.PortName),
			Driver:          windows.UTF16PtrToString(info.DriverName),
			DefaultDataType: windows.UTF16PtrToString(info.Datatype),
			Location:        windows.UTF16PtrToString(info.Location),
			Description:     windows.UTF16PtrToString(info.Comment),
		}
		p.DeviceID = p.Name
		applyAttributes(&p, info.Attributes)
		p.Properties = map[string]any{
			"ServerName":      windows.UTF16PtrToString(info.ServerName),
			"Name":            p.Name,
			"ShareName":       windows.UTF16PtrToString(info.ShareName),
			"PortName":        p.Port,
			"DriverName":      p.Driver,
			"Comment":         p.Description,
			"Location":        p.Location,
			"SepFile":         windows.UTF16PtrToString(info.SepFile),
			"PrintProcessor":  windows.UTF16PtrToString(info.PrintProcessor),
			"Datatype":        p.DefaultDataType,
			"Parameters":      windows.UTF16PtrToString(info.Parameters),
			"Attributes":      info.Attributes,
			"Priority":        info.Priority,
			"DefaultPriority": info.DefaultPriority,
			"StartTime":       info.StartTime,
			"UntilTime":       info.UntilTime,
			"Status":          info.Status,
			"Jobs":            info.Jobs,
			"AveragePPM":      info.AveragePPM,
			"Shared":          p.Shared,
			"Local":           p.Local,
			"SpoolEnabled":    p.SpoolEnabled,
		}
		out = append(out, printerEntry{
			printer:   p,
			processor: windows.UTF16PtrToString(info.PrintProcessor),
			status:    info.Status,
		})
	}
	return out
}

func openPrinter(name string) (windows.Handle, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, spooler.Wrap("open", name, int(windows.ERROR_INVALID_PARAMETER), err)
	}
	var h windows.Handle
	r1, _, err := procOpenPrinterW.Call(uintptr(unsafe.Pointer(namePtr)), uintptr(unsafe.Pointer(&h)), 0)
	if r1 == 0 {
		return 0, winErr("open", name, err)
	}
	return h, nil
}

func closePrinter(h windows.Handle) error {
	r1, _, err := procClosePrinter.Call(uintptr(h))
	if r1 == 0 {
		return err
	}
	return nil
}

func enumJobs(h windows.Handle, printer string) ([]spooler.Job, error) {
	level := uint32(1)
	var needed, returned uint32

	r1, _, err := procEnumJobs.Call(
		uintptr(h), 0, maxJobs, uintptr(level), 0, 0,
		uintptr(unsafe.Pointer(&needed)),
		uintptr(unsafe.Pointer(&returned)),
	)
	if needed == 0 {
		if r1 == 0 && !errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) && err != windows.Errno(0) {
			return nil, winErr("enumjobs", printer, err)
		}
		return nil, nil
	}

	buf := make([]byte, needed)
	r1, _, err = procEnumJobs.Call(
		uintptr(h), 0, maxJobs, uintptr(level),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(needed),
		uintptr(unsafe.Pointer(&needed)),
		uintptr(unsafe.Pointer(&returned)),
	)
	if r1 == 0 {
		return nil, winErr("enumjobs", printer, err)
	}

	return decodeJobs(buf, returned), nil
}

// decodeJobs reads returned JOB_INFO_1 records from the head of buf.
func decodeJobs(buf []byte, returned uint32) []spooler.Job {
	if returned == 0 || len(buf) == 0 {
		return nil
	}
	out := make([]spooler.Job, 0, returned)
	infos := unsafe.Slice((*jobInfo1)(unsafe.Pointer(&buf[0])), returned)
	for i := range infos {
		info := &infos[i]
		doc := windows.UTF16PtrToString(info.Document)
		st := info.Submitted
		j := spooler.Job{
			ID:           strconv.FormatUint(uint64(info.JobID), 10),
			Name:         doc,
			DocumentName: doc,
			Priority:     int(info.Position),
			SubmittedAt: time.Date(int(st.Year), time.Month(st.Month), int(st.Day),
				int(st.Hour), int(st.Minute), int(st.Second), int(st.Milliseconds)*int(time.Millisecond), time.UTC),
		}
		applyJobStatus(&j, info.Status)
		out = append(out, j)
	}
	return out
}

func (s *Spooler) Printers(ctx context.Context) ([]spooler.Printer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := enumPrinters()
	if err != nil {
		return nil, err
	}
	out := make([]spooler.Printer, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.printer)
	}
	return out, nil
}

func (s *Spooler) Queues(ctx context.Context) ([]spooler.Queue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := enumPrinters()
	if err != nil {
		return nil, err
	}

	out := make([]spooler.Queue, 0, len(entries))
	for _, e := range entries {
		q := spooler.Queue{
			Printer:        e.printer.Name,
			Location:       e.printer.Location,
			Driver:         e.printer.Driver,
			Port:           e.printer.Port,
			PrintProcessor: e.processor,
			Status:         decodePrinterStatus(e.status),
		}

		h, err := openPrinter(e.printer.Name)
		if err != nil {
			s.log.Warn().Err(err).Str("printer", e.printer.Name).Msg("Skipping jobs of unreachable printer")
			out = append(out, q)
			continue
		}
		q.Jobs, err = enumJobs(h, e.printer.Name)
		if cerr := closePrinter(h); cerr != nil {
			s.log.Warn().Err(cerr).Str("printer", e.printer.Name).Msg("Failed to close printer handle")
		}
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Spooler) Open(ctx context.Context, printer string) (spooler.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := openPrinter(printer)
	if err != nil {
		return nil, err
	}
	return &handle{h: h, printer: printer}, nil
}

func (s *Spooler) ControlJob(ctx context.Context, printer, jobID string, ctl spooler.JobControl) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd, ok := jobControl(ctl)
	if !ok {
		return spooler.Wrap("setjob", printer, int(windows.ERROR_INVALID_PARAMETER), fmt.Errorf("unsupported job control %d", ctl))
	}
	id, err := strconv.ParseUint(jobID, 10, 32)
	if err != nil {
		return spooler.Wrap("setjob", printer, int(windows.ERROR_INVALID_PARAMETER), spooler.ErrJobNotFound)
	}

	h, err := openPrinter(printer)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closePrinter(h); cerr != nil {
			s.log.Warn().Err(cerr).Str("printer", printer).Msg("Failed to close printer handle")
		}
	}()

	r1, _, err := procSetJob.Call(uintptr(h), uintptr(id), 0, 0, uintptr(cmd))
	if r1 == 0 {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			err = errors.Join(spooler.ErrJobNotFound, err)
		}
		return winErr("setjob", printer, err)
	}
	return nil
}

type handle struct {
	h       windows.Handle
	printer string
	closed  bool
}

func (h *handle) check(op string) error {
	if h.closed {
		return spooler.Wrap(op, h.printer, int(windows.ERROR_INVALID_HANDLE), spooler.ErrInvalidHandle)
	}
	return nil
}

func (h *handle) StartDoc(ctx context.Context, doc spooler.DocInfo) error {
	if err := h.check("startdoc"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := windows.UTF16PtrFromString(doc.Name)
	if err != nil {
		return spooler.Wrap("startdoc", h.printer, int(windows.ERROR_INVALID_PARAMETER), err)
	}
	info := docInfo1{DocName: name}
	if doc.DataType != "" {
		dt, err := windows.UTF16PtrFromString(doc.DataType)
		if err != nil {
			return spooler.Wrap("startdoc", h.printer, int(windows.ERROR_INVALID_PARAMETER), err)
		}
		info.Datatype = dt
	}

	r1, _, err := procStartDoc.Call(uintptr(h.h), 1, uintptr(unsafe.Pointer(&info)))
	if r1 == 0 {
		return winErr("startdoc", h.printer, err)
	}
	return nil
}

func (h *handle) StartPage(ctx context.Context) error {
	if err := h.check("startpage"); err != nil {
		return err
	}
	r1, _, err := procStartPage.Call(uintptr(h.h))
	if r1 == 0 {
		return winErr("startpage", h.printer, err)
	}
	return nil
}

func (h *handle) Write(ctx context.Context, p []byte) (int, error) {
	if err := h.check("write"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	var written uint32
	r1, _, err := procWritePrinter.Call(
		uintptr(h.h),
		uintptr(unsafe.Pointer(&p[0])),
		uintptr(len(p)),
		uintptr(unsafe.Pointer(&written)),
	)
	if r1 == 0 {
		return int(written), winErr("write", h.printer, err)
	}
	return int(written), nil
}

func (h *handle) EndPage(ctx context.Context) error {
	if err := h.check("endpage"); err != nil {
		return err
	}
	r1, _, err := procEndPage.Call(uintptr(h.h))
	if r1 == 0 {
		return winErr("endpage", h.printer, err)
	}
	return nil
}

func (h *handle) EndDoc(ctx context.Context) error {
	if err := h.check("enddoc"); err != nil {
		return err
	}
	r1, _, err := procEndDoc.Call(uintptr(h.h))
	if r1 == 0 {
		return winErr("enddoc", h.printer, err)
	}
	return nil
}

func (h *handle) Close() error {
	if err := h.check("close"); err != nil {
		return err
	}
	h.closed = true
	if err := closePrinter(h.h); err != nil {
		return winErr("close", h.printer, err)
	}
	return nil
}
