// Package memspool is an in-process print spooler. It keeps printers and their
// queued jobs in memory and supports fault injection per printer operation.
package memspool

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/orrn/printgate/internal/spooler"
)

const (
	codeInvalidHandle  = 6
	codeInvalidParam   = 87
	codeInvalidPrinter = 1801
)

// Fault makes the named operation fail on a printer. Op is one of open,
// startdoc, startpage, write, endpage, enddoc, close, control. When Short is
// set on a write fault, half of the payload is accepted and no error is
// returned.
type Fault struct {
	Op    string
	Code  int
	Short bool
}

type job struct {
	spooler.Job
	data []byte
}

type printer struct {
	info   spooler.Printer
	status spooler.QueueStatus
	jobs   []*job
}

type Spooler struct {
	mu        sync.Mutex
	printers  []*printer
	nextJob   int
	faults    map[string]Fault
	jobFaults map[string]int
	calls     []string
	now       func() time.Time
}

func New(printers ...spooler.Printer) *Spooler {
	s := &Spooler{
		faults:    make(map[string]Fault),
		jobFaults: make(map[string]int),
		now:       time.Now,
	}
	for _, p := range printers {
		s.AddPrinter(p)
	}
	return s
}

func (s *Spooler) Name() string { return "memory" }

func (s *Spooler) AddPrinter(p spooler.Printer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.DefaultDataType == "" {
		p.DefaultDataType = "RAW"
	}
	s.printers = append(s.printers, &printer{info: p})
}

// SetStatus replaces the live flags reported for a printer's queue.
func (s *Spooler) SetStatus(name string, st spooler.QueueStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(name)
	if p == nil {
		return spooler.Wrap("status", name, codeInvalidPrinter, spooler.ErrNotFound)
	}
	p.status = st
	return nil
}

// InjectFault registers a failure for op on printer. A zero Fault clears it.
func (s *Spooler) InjectFault(name string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := faultKey(name, f.Op)
	if f.Code == 0 && !f.Short {
		delete(s.faults, key)
		return
	}
	s.faults[key] = f
}

// FailJob makes job control on a single job fail with code.
func (s *Spooler) FailJob(name, jobID string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobFaults[faultKey(name, jobID)] = code
}

// AddJob queues a job directly, as if another client had printed it.
func (s *Spooler) AddJob(name, document string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(name)
	if p == nil {
		return "", spooler.Wrap("addjob", name, codeInvalidPrinter, spooler.ErrNotFound)
	}
	return s.enqueue(p, document).ID, nil
}

// Complete removes a finished job from its queue.
func (s *Spooler) Complete(name, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(name)
	if p == nil {
		return spooler.Wrap("complete", name, codeInvalidPrinter, spooler.ErrNotFound)
	}
	if !p.remove(jobID) {
		return spooler.Wrap("complete", name, codeInvalidParam, spooler.ErrJobNotFound)
	}
	return nil
}

// JobData returns the bytes written to a queued job.
func (s *Spooler) JobData(name, jobID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(name)
	if p == nil {
		return nil, false
	}
	j := p.job(jobID)
	if j == nil {
		return nil, false
	}
	return append([]byte(nil), j.data...), true
}

// Calls returns the protocol calls seen so far, oldest first.
func (s *Spooler) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Spooler) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Spooler) Printers(ctx context.Context) ([]spooler.Printer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]spooler.Printer, 0, len(s.printers))
	for _, p := range s.printers {
		info := p.info
		info.Properties = properties(p.info)
		out = append(out, info)
	}
	return out, nil
}

func (s *Spooler) Queues(ctx context.Context) ([]spooler.Queue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]spooler.Queue, 0, len(s.printers))
	for _, p := range s.printers {
		q := spooler.Queue{
			Printer:        p.info.Name,
			Location:       p.info.Location,
			Driver:         p.info.Driver,
			Port:           p.info.Port,
			PrintProcessor: "memspool",
			Status:         p.status,
			Jobs:           make([]spooler.Job, 0, len(p.jobs)),
		}
		for i, j := range p.jobs {
			snap := j.Job
			snap.Priority = i + 1
			q.Jobs = append(q.Jobs, snap)
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Spooler) Open(ctx context.Context, name string) (spooler.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, "open "+name)
	p := s.find(name)
	if p == nil {
		return nil, spooler.Wrap("open", name, codeInvalidPrinter, spooler.ErrNotFound)
	}
	if err := s.fault(p, "open"); err != nil {
		return nil, err
	}
	return &handle{s: s, p: p}, nil
}

func (s *Spooler) ControlJob(ctx context.Context, name, jobID string, ctl spooler.JobControl) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, fmt.Sprintf("control %s %s %s", name, jobID, ctl))
	p := s.find(name)
	if p == nil {
		return spooler.Wrap("setjob", name, codeInvalidPrinter, spooler.ErrNotFound)
	}
	if err := s.fault(p, "control"); err != nil {
		return err
	}
	if code, ok := s.jobFaults[faultKey(p.info.Name, jobID)]; ok {
		return spooler.Wrap("setjob", p.info.Name, code, errors.New("job control rejected"))
	}

	j := p.job(jobID)
	if j == nil {
		return spooler.Wrap("setjob", p.info.Name, codeInvalidParam, spooler.ErrJobNotFound)
	}

	switch ctl {
	case spooler.JobCancel:
		p.remove(jobID)
	case spooler.JobPause:
		j.IsPaused = true
	case spooler.JobResume:
		j.IsPaused = false
	default:
		return spooler.Wrap("setjob", p.info.Name, codeInvalidParam, fmt.Errorf("unsupported job control %d", ctl))
	}
	return nil
}

func (s *Spooler) find(name string) *printer {
	for _, p := range s.printers {
		if strings.EqualFold(p.info.Name, name) {
			return p
		}
	}
	return nil
}

func (s *Spooler) fault(p *printer, op string) error {
	f, ok := s.faults[faultKey(p.info.Name, op)]
	if !ok || f.Code == 0 {
		return nil
	}
	return spooler.Wrap(op, p.info.Name, f.Code, errors.New("injected fault"))
}

func (s *Spooler) enqueue(p *printer, document string) *job {
	s.nextJob++
	j := &job{Job: spooler.Job{
		ID:           strconv.Itoa(s.nextJob),
		Name:         document,
		DocumentName: document,
		SubmittedAt:  s.now().UTC(),
	}}
	p.jobs = append(p.jobs, j)
	return j
}

func (p *printer) job(id string) *job {
	for _, j := range p.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func (p *printer) remove(id string) bool {
	for i, j := range p.jobs {
		if j.ID == id {
			p.jobs = append(p.jobs[:i], p.jobs[i+1:]...)
			return true
		}
	}
	return false
}

func faultKey(printer, op string) string {
	return strings.ToLower(printer) + "\x00" + op
}

func properties(p spooler.Printer) map[string]any {
	props := map[string]any{
		"Name":             p.Name,
		"PortName":         p.Port,
		"DriverName":       p.Driver,
		"DeviceID":         p.DeviceID,
		"Shared":           p.Shared,
		"PrintJobDataType": p.DefaultDataType,
		"Local":            p.Local,
		"SpoolEnabled":     p.SpoolEnabled,
		"Location":         p.Location,
		"Description":      p.Description,
	}
	for k, v := range p.Properties {
		props[k] = v
	}
	return props
}
