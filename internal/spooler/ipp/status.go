package ipp

import (
	"strings"

	"github.com/orrn/printgate/internal/spooler"
)

// printer-state values
const (
	printerIdle       = 3
	printerProcessing = 4
	printerStopped    = 5
)

// job-state values
const (
	jobPendingHeld       = 4
	jobProcessing        = 5
	jobProcessingStopped = 6
)

// reasonBase strips the -report, -warning or -error severity suffix.
func reasonBase(reason string) (base string, isError bool) {
	reason = strings.ToLower(strings.TrimSpace(reason))
	for _, suffix := range []string{"-report", "-warning"} {
		if strings.HasSuffix(reason, suffix) {
			return strings.TrimSuffix(reason, suffix), false
		}
	}
	if strings.HasSuffix(reason, "-error") {
		return strings.TrimSuffix(reason, "-error"), true
	}
	return reason, false
}

func queueStatus(state int, reasons []string) spooler.QueueStatus {
	var st spooler.QueueStatus

	switch state {
	case printerProcessing:
		st.Busy = true
		st.Printing = true
	case printerStopped:
		st.Paused = true
	}

	for _, r := range reasons {
		base, isError := reasonBase(r)
		if isError {
			st.InError = true
		}
		switch base {
		case "offline":
			st.Offline = true
		case "paused", "moving-to-paused":
			st.Paused = true
		case "media-empty", "media-needed":
			st.PaperOut = true
			st.NeedUserIntervention = true
		case "media-jam":
			st.PaperJammed = true
			st.NeedUserIntervention = true
		case "toner-low", "marker-supply-low":
			st.TonerLow = true
		case "door-open", "cover-open":
			st.DoorOpen = true
			st.NeedUserIntervention = true
		case "toner-empty", "marker-supply-empty", "input-tray-missing", "output-tray-missing":
			st.NeedUserIntervention = true
		}
	}

	return st
}

func applyJobState(j *spooler.Job, state int, reasons []string) {
	switch state {
	case jobPendingHeld:
		j.IsPaused = true
	case jobProcessing:
		j.IsPrinting = true
	case jobProcessingStopped:
		j.IsInError = true
	}

	for _, r := range reasons {
		switch strings.ToLower(strings.TrimSpace(r)) {
		case "processing-to-stop-point", "job-canceled-by-user":
			j.IsDeleting = true
		case "job-hold-until-specified":
			j.IsPaused = true
		}
		if _, isError := reasonBase(r); isError {
			j.IsInError = true
		}
	}
}
