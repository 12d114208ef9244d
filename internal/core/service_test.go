package core

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
	"github.com/orrn/printgate/internal/spooler/memspool"
)

type staticProber map[string]spooler.QueueStatus

func (p staticProber) Probe(_ context.Context, port string) (spooler.QueueStatus, bool) {
	st, ok := p[port]
	return st, ok
}

func newService(mem *memspool.Spooler) *Service {
	return NewService(mem, nil, logger.NewTestLogger())
}

func TestPrintEndToEnd(t *testing.T) {
	mem := newMem()
	svc := newService(mem)

	res, err := svc.Print(context.Background(), PrintRequest{
		Printer:  strp("HP1"),
		Name:     strp("doc1"),
		Data:     strp("hello"),
		DataType: strp("TEXT"),
	})
	require.NoError(t, err)
	assert.Contains(t, PrintMessage(res, err), "Print request sent to HP1 as TEXT data.")

	queues, err := svc.ListQueues(context.Background())
	require.NoError(t, err)
	require.Len(t, queues[0].Jobs, 1)
	assert.Equal(t, "doc1", queues[0].Jobs[0].Name)

	data, ok := mem.JobData("HP1", queues[0].Jobs[0].ID)
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))
}

func TestPrintWriteFailureReportsCode(t *testing.T) {
	mem := newMem()
	mem.InjectFault("HP1", memspool.Fault{Op: "write", Code: 1722})
	svc := newService(mem)

	res, err := svc.Print(context.Background(), PrintRequest{
		Printer: strp("HP1"), Name: strp("doc1"), Data: strp("hello"), DataType: strp("TEXT"),
	})
	require.Error(t, err)
	assert.Equal(t, "An error occurred during print request: 1722", PrintMessage(res, err))
}

func TestPrintUnknownDataTypeFallsBack(t *testing.T) {
	for _, dt := range []string{"PDF", "NT EMF 2.0", "", " "} {
		mem := newMem()
		svc := newService(mem)

		res, err := svc.Print(context.Background(), PrintRequest{
			Printer: strp("Zebra"), Name: strp("label"), Data: strp("^XA^XZ"), DataType: strp(dt),
		})
		require.NoError(t, err, dt)
		assert.Equal(t, DataTypeText, res.DataType, dt)
		assert.Equal(t, "Print request sent to Zebra as TEXT data.", PrintMessage(res, err))
	}
}

func TestPrintAbsentDataTypeUsesPrinterDefault(t *testing.T) {
	svc := newService(newMem())

	res, err := svc.Print(context.Background(), PrintRequest{
		Printer: strp("HP1"), Name: strp("doc"), Data: strp("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, DataTypeRaw, res.DataType)
}

func TestPrintUnknownPrinterHasNoSideEffects(t *testing.T) {
	for _, name := range []string{"Ghost", "hp1", " HP1"} {
		mem := newMem()
		svc := newService(mem)

		res, err := svc.Print(context.Background(), PrintRequest{
			Printer: strp(name), Name: strp("doc"), Data: strp("x"),
		})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), name)
		assert.Equal(t, UnknownPrinter, ve.Kind)
		assert.Equal(t, name+" is not found in the print service.", PrintMessage(res, err))
		assert.Empty(t, mem.Calls(), name)
	}
}

func TestPrintMissingFields(t *testing.T) {
	svc := newService(newMem())

	reqs := []PrintRequest{
		{Name: strp("doc"), Data: strp("x")},
		{Printer: strp("HP1"), Data: strp("x")},
		{Printer: strp("HP1"), Name: strp("doc")},
	}
	for _, req := range reqs {
		res, err := svc.Print(context.Background(), req)
		assert.Equal(t, "Print requests requires a 'Printer', 'Name' and 'Data' parameters.", PrintMessage(res, err))
	}
}

func TestPrintBase64(t *testing.T) {
	mem := newMem()
	svc := newService(mem)
	payload := []byte{0x1b, 0x40, 0x00, 0xff}

	_, err := svc.Print(context.Background(), PrintRequest{
		Printer:      strp("HP1"),
		Name:         strp("bin"),
		Data:         strp(base64.StdEncoding.EncodeToString(payload)),
		DataEncoding: strp("Base64"),
	})
	require.NoError(t, err)

	queues, _ := mem.Queues(context.Background())
	data, ok := mem.JobData("HP1", queues[0].Jobs[0].ID)
	require.True(t, ok)
	assert.Equal(t, payload, data)

	res, err := svc.Print(context.Background(), PrintRequest{
		Printer: strp("HP1"), Name: strp("bin"), Data: strp("%%%"), DataEncoding: strp("base64"),
	})
	require.Error(t, err)
	assert.Equal(t, "Print request 'Data' could not be decoded as base64.", PrintMessage(res, err))
}

func TestCommandMessages(t *testing.T) {
	tests := []struct {
		name string
		req  CommandRequest
		want string
	}{
		{
			name: "missing command",
			req:  CommandRequest{Printer: strp("HP1")},
			want: "Command requests requires a 'Command' and 'Printer' parameters.",
		},
		{
			name: "missing printer",
			req:  CommandRequest{Command: strp("purge")},
			want: "Command requests requires a 'Command' and 'Printer' parameters.",
		},
		{
			name: "unknown command",
			req:  CommandRequest{Command: strp(" restart "), Printer: strp("HP1")},
			want: "'RESTART' command is not supported.",
		},
		{
			name: "blank printer",
			req:  CommandRequest{Command: strp("purge"), Printer: strp("  ")},
			want: "Command requires a 'Printer' parameter to have a value.",
		},
		{
			name: "unknown printer",
			req:  CommandRequest{Command: strp("purge"), Printer: strp("ghost")},
			want: "'GHOST' is not found in the print service.",
		},
		{
			name: "empty queue",
			req:  CommandRequest{Command: strp("Purge"), Printer: strp("HP1")},
			want: "0 print jobs are affected by 'PURGE' on 'HP1'.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newMem()
			svc := newService(mem)

			res, err := svc.Command(context.Background(), tt.req)
			assert.Equal(t, tt.want, CommandMessage(res, err))
		})
	}
}

func TestCommandUnknownPrinterHasNoSideEffects(t *testing.T) {
	for _, name := range []string{"ghost", "hp1", " HP1"} {
		mem := newMem()
		seedJobs(t, mem, "HP1", "A", "B")
		mem.ResetCalls()
		svc := newService(mem)

		res, err := svc.Command(context.Background(), CommandRequest{Command: strp("purge"), Printer: strp(name)})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), name)
		assert.Equal(t, UnknownPrinter, ve.Kind)
		assert.Zero(t, res.Affected, name)
		assert.Len(t, jobsOf(t, mem, "HP1"), 2, name)
		assert.Empty(t, mem.Calls(), name)
	}
}

func TestCommandRejectsBeforeTouchingJobs(t *testing.T) {
	for _, cmd := range []string{"delete", "PURGEALL", "", "stop"} {
		mem := newMem()
		seedJobs(t, mem, "HP1", "A")
		mem.ResetCalls()
		svc := newService(mem)

		_, err := svc.Command(context.Background(), CommandRequest{Command: strp(cmd), Printer: strp("HP1")})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), cmd)
		assert.Equal(t, UnknownCommand, ve.Kind)
		assert.Empty(t, mem.Calls())
		assert.Len(t, jobsOf(t, mem, "HP1"), 1)
	}
}

func TestCommandSelectors(t *testing.T) {
	mem := newMem()
	seedJobs(t, mem, "HP1", "A", "B")
	svc := newService(mem)

	res, err := svc.Command(context.Background(), CommandRequest{
		Command: strp("pause"), Printer: strp("HP1"), DocumentName: strp("A"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)

	res, err = svc.Command(context.Background(), CommandRequest{
		Command: strp("pause"), Printer: strp("HP1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)
	assert.Equal(t, "2 print jobs are affected by 'PAUSE' on 'HP1'.", CommandMessage(res, err))
}

func TestInspectorMergesProbe(t *testing.T) {
	mem := memspool.New(spooler.Printer{Name: "Net", Port: "IP_10.0.0.9"}, spooler.Printer{Name: "USB", Port: "USB001"})
	require.NoError(t, mem.SetStatus("Net", spooler.QueueStatus{Busy: true}))
	probe := staticProber{"IP_10.0.0.9": {TonerLow: true}}

	svc := NewService(mem, probe, logger.NewTestLogger())
	queues, err := svc.ListQueues(context.Background())
	require.NoError(t, err)

	assert.Equal(t, spooler.QueueStatus{Busy: true, TonerLow: true}, queues[0].Status)
	assert.Equal(t, spooler.QueueStatus{}, queues[1].Status)
}
