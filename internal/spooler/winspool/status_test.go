package winspool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orrn/printgate/internal/spooler"
)

func TestDecodePrinterStatus(t *testing.T) {
	st := decodePrinterStatus(printerStatusPaperOut | printerStatusOffline | printerStatusError)
	assert.Equal(t, spooler.QueueStatus{PaperOut: true, Offline: true, InError: true}, st)

	st = decodePrinterStatus(printerStatusBusy | printerStatusPrinting | printerStatusTonerLow |
		printerStatusDoorOpen | printerStatusUserIntervention | printerStatusPaperJam | printerStatusPaused)
	assert.Equal(t, spooler.QueueStatus{
		Busy: true, Printing: true, TonerLow: true, DoorOpen: true,
		NeedUserIntervention: true, PaperJammed: true, Paused: true,
	}, st)

	assert.Equal(t, spooler.QueueStatus{}, decodePrinterStatus(0))
}

func TestApplyJobStatus(t *testing.T) {
	var j spooler.Job
	applyJobStatus(&j, jobStatusPaused|jobStatusDeleting)
	assert.True(t, j.IsPaused)
	assert.True(t, j.IsDeleting)
	assert.False(t, j.IsPrinting)
	assert.False(t, j.IsInError)

	applyJobStatus(&j, jobStatusPrinting|jobStatusError)
	assert.False(t, j.IsPaused)
	assert.True(t, j.IsPrinting)
	assert.True(t, j.IsInError)
}

func TestApplyAttributes(t *testing.T) {
	var p spooler.Printer
	applyAttributes(&p, printerAttributeShared|printerAttributeLocal)
	assert.True(t, p.Shared)
	assert.True(t, p.Local)
	assert.True(t, p.SpoolEnabled)

	applyAttributes(&p, printerAttributeDirect)
	assert.False(t, p.Shared)
	assert.False(t, p.SpoolEnabled)
}

func TestJobControl(t *testing.T) {
	c, ok := jobControl(spooler.JobCancel)
	assert.True(t, ok)
	assert.Equal(t, uint32(jobControlDelete), c)

	c, _ = jobControl(spooler.JobPause)
	assert.Equal(t, uint32(jobControlPause), c)

	c, _ = jobControl(spooler.JobResume)
	assert.Equal(t, uint32(jobControlResume), c)

	_, ok = jobControl(spooler.JobControl(0))
	assert.False(t, ok)
}
