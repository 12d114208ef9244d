// Package winspool is a spooler backend over the Windows print spooler
// (winspool.drv). On other platforms New reports spooler.ErrUnsupported.
package winspool

import (
	"github.com/orrn/printgate/internal/spooler"
)

// PRINTER_STATUS_* bits
const (
	printerStatusPaused           = 0x00000001
	printerStatusError            = 0x00000002
	printerStatusPaperJam         = 0x00000008
	printerStatusPaperOut         = 0x00000010
	printerStatusOffline          = 0x00000080
	printerStatusBusy             = 0x00000200
	printerStatusPrinting         = 0x00000400
	printerStatusTonerLow         = 0x00020000
	printerStatusUserIntervention = 0x00100000
	printerStatusDoorOpen         = 0x00400000
)

// PRINTER_ATTRIBUTE_* bits
const (
	printerAttributeDirect = 0x00000002
	printerAttributeShared = 0x00000008
	printerAttributeLocal  = 0x00000040
)

// JOB_STATUS_* bits
const (
	jobStatusPaused   = 0x00000001
	jobStatusError    = 0x00000002
	jobStatusDeleting = 0x00000004
	jobStatusPrinting = 0x00000010
)

// JOB_CONTROL_* commands for SetJob
const (
	jobControlPause  = 1
	jobControlResume = 2
	jobControlDelete = 5
)

const errInvalidPrinterName = 1801

func decodePrinterStatus(status uint32) spooler.QueueStatus {
	return spooler.QueueStatus{
		Busy:                 status&printerStatusBusy != 0,
		Offline:              status&printerStatusOffline != 0,
		Paused:               status&printerStatusPaused != 0,
		Printing:             status&printerStatusPrinting != 0,
		PaperOut:             status&printerStatusPaperOut != 0,
		PaperJammed:          status&printerStatusPaperJam != 0,
		TonerLow:             status&printerStatusTonerLow != 0,
		DoorOpen:             status&printerStatusDoorOpen != 0,
		NeedUserIntervention: status&printerStatusUserIntervention != 0,
		InError:              status&printerStatusError != 0,
	}
}

func applyJobStatus(j *spooler.Job, status uint32) {
	j.IsPaused = status&jobStatusPaused != 0
	j.IsInError = status&jobStatusError != 0
	j.IsDeleting = status&jobStatusDeleting != 0
	j.IsPrinting = status&jobStatusPrinting != 0
}

func applyAttributes(p *spooler.Printer, attrs uint32) {
	p.Shared = attrs&printerAttributeShared != 0
	p.Local = attrs&printerAttributeLocal != 0
	p.SpoolEnabled = attrs&printerAttributeDirect == 0
}

func jobControl(ctl spooler.JobControl) (uint32, bool) {
	switch ctl {
	case spooler.JobCancel:
		return jobControlDelete, true
	case spooler.JobPause:
		return jobControlPause, true
	case spooler.JobResume:
		return jobControlResume, true
	default:
		return 0, false
	}
}
