// Package spooler defines the print spooler resource used by the core: printer
// and queue enumeration, the raw document protocol, and job control.
package spooler

import (
	"context"
	"time"
)

// Printer is a snapshot of one installed printer.
type Printer struct {
	Name            string         `json:"Name"`
	Port            string         `json:"PortName"`
	Driver          string         `json:"DriverName"`
	DeviceID        string         `json:"DeviceID"`
	Shared          bool           `json:"Shared"`
	DefaultDataType string         `json:"PrintJobDataType"`
	Local           bool           `json:"Local"`
	SpoolEnabled    bool           `json:"SpoolEnabled"`
	Location        string         `json:"Location"`
	Description     string         `json:"Description"`
	Properties      map[string]any `json:"-"`
}

// QueueStatus holds the live condition flags of a print queue.
type QueueStatus struct {
	Busy                 bool `json:"IsBusy"`
	Offline              bool `json:"IsOffline"`
	Paused               bool `json:"IsPaused"`
	Printing             bool `json:"IsPrinting"`
	PaperOut             bool `json:"IsOutOfPaper"`
	PaperJammed          bool `json:"IsPaperJammed"`
	TonerLow             bool `json:"IsTonerLow"`
	DoorOpen             bool `json:"IsDoorOpened"`
	NeedUserIntervention bool `json:"NeedUserIntervention"`
	InError              bool `json:"IsInError"`
}

// Merge returns the union of both flag sets.
func (s QueueStatus) Merge(o QueueStatus) QueueStatus {
	return QueueStatus{
		Busy:                 s.Busy || o.Busy,
		Offline:              s.Offline || o.Offline,
		Paused:               s.Paused || o.Paused,
		Printing:             s.Printing || o.Printing,
		PaperOut:             s.PaperOut || o.PaperOut,
		PaperJammed:          s.PaperJammed || o.PaperJammed,
		TonerLow:             s.TonerLow || o.TonerLow,
		DoorOpen:             s.DoorOpen || o.DoorOpen,
		NeedUserIntervention: s.NeedUserIntervention || o.NeedUserIntervention,
		InError:              s.InError || o.InError,
	}
}

// Queue is a snapshot of a printer's queue. Jobs are in queue order.
type Queue struct {
	Printer        string
	Location       string
	Driver         string
	Port           string
	PrintProcessor string
	Status         QueueStatus
	Jobs           []Job
}

type Job struct {
	ID           string    `json:"JobId"`
	Name         string    `json:"Name"`
	DocumentName string    `json:"DocumentName"`
	Priority     int       `json:"Priority"`
	SubmittedAt  time.Time `json:"TimeSubmitted"`
	IsPaused     bool      `json:"IsPaused"`
	IsPrinting   bool      `json:"IsPrinting"`
	IsDeleting   bool      `json:"IsDeleting"`
	IsInError    bool      `json:"IsInError"`
}

// DocInfo describes the document opened by Handle.StartDoc.
type DocInfo struct {
	Name     string
	DataType string
}

type JobControl int

const (
	JobCancel JobControl = iota + 1
	JobPause
	JobResume
)

func (c JobControl) String() string {
	switch c {
	case JobCancel:
		return "cancel"
	case JobPause:
		return "pause"
	case JobResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Spooler is a print spooler. Every call reads current state; nothing is cached.
type Spooler interface {
	Name() string
	Printers(ctx context.Context) ([]Printer, error)
	Queues(ctx context.Context) ([]Queue, error)
	// Open acquires a printer handle. The caller must Close it.
	Open(ctx context.Context, printer string) (Handle, error)
	ControlJob(ctx context.Context, printer, jobID string, ctl JobControl) error
}

// Handle is an open printer. Calls must follow the order
// StartDoc, StartPage, Write, EndPage, EndDoc, Close.
type Handle interface {
	StartDoc(ctx context.Context, doc DocInfo) error
	StartPage(ctx context.Context) error
	Write(ctx context.Context, p []byte) (int, error)
	EndPage(ctx context.Context) error
	EndDoc(ctx context.Context) error
	Close() error
}
