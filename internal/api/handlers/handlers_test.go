package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrn/printgate/internal/api/middleware"
	"github.com/orrn/printgate/internal/core"
	"github.com/orrn/printgate/internal/db"
	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
	"github.com/orrn/printgate/internal/spooler/memspool"
	"github.com/orrn/printgate/internal/webhook"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   []string
	printed  []webhook.PrintEventData
	commands []webhook.CommandEventData
}

func (n *recordingNotifier) PrintSubmitted(d webhook.PrintEventData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "print_submitted")
	n.printed = append(n.printed, d)
}

func (n *recordingNotifier) PrintFailed(d webhook.PrintEventData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "print_failed")
	n.printed = append(n.printed, d)
}

func (n *recordingNotifier) CommandDispatched(d webhook.CommandEventData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, "command_dispatched")
	n.commands = append(n.commands, d)
}

type testEnv struct {
	router   *gin.Engine
	mem      *memspool.Spooler
	store    *db.Store
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := memspool.New(
		spooler.Printer{Name: "HP1", Port: "IP_10.0.0.5", DefaultDataType: "RAW", Location: "Floor 2"},
		spooler.Printer{Name: "Zebra", Port: "USB001", DefaultDataType: "TEXT",
			Properties: map[string]any{"Resolution": "203dpi"}},
	)

	store, err := db.Open(db.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logger.NewTestLogger()
	svc := core.NewService(mem, nil, log)
	notifier := &recordingNotifier{}

	r := gin.New()
	r.Use(middleware.RequestID())
	RegisterPrinterRoutes(r, NewPrinterHandler(svc, log))
	RegisterJobRoutes(r, NewJobHandler(svc, store, notifier, log))
	NewAuditHandler(store, log).RegisterRoutes(r)

	return &testEnv{router: r, mem: mem, store: store, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func responseText(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TextResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Response
}

func TestListPrinters(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/Printers", "")
	require.Equal(t, http.StatusOK, w.Code)

	var printers []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &printers))
	require.Len(t, printers, 2)
	assert.Equal(t, "HP1", printers[0]["Name"])
	assert.Equal(t, "IP_10.0.0.5", printers[0]["PortName"])
	assert.NotContains(t, printers[0], "Properties")

	w = env.do(t, http.MethodGet, "/Printers?options=Extended", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &printers))
	props, ok := printers[1]["Properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "203dpi", props["Resolution"])
}

func TestListQueues(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.mem.AddJob("HP1", "invoice")
	require.NoError(t, err)
	require.NoError(t, env.mem.SetStatus("HP1", spooler.QueueStatus{PaperOut: true}))

	w := env.do(t, http.MethodGet, "/PrintQueue", "")
	require.Equal(t, http.StatusOK, w.Code)

	var queues []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &queues))
	require.Len(t, queues, 2)
	assert.Equal(t, "HP1", queues[0]["Printer"])
	assert.Equal(t, "Floor 2", queues[0]["Location"])
	assert.EqualValues(t, 1, queues[0]["NumberOfJobs"])
	assert.Equal(t, true, queues[0]["IsOutOfPaper"])
	assert.Equal(t, "memspool", queues[0]["QueuePrintProcessor"])

	jobs := queues[1]["Jobs"].([]any)
	assert.Empty(t, jobs)
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "sent with explicit data type",
			body: `{"Printer":"HP1","Name":"doc","Data":"hello","DataType":"text"}`,
			want: "Print request sent to HP1 as TEXT data.",
		},
		{
			name: "unknown data type falls back to printer default",
			body: `{"Printer":"Zebra","Name":"doc","Data":"^XA^XZ","DataType":"ZPL"}`,
			want: "Print request sent to Zebra as TEXT data.",
		},
		{
			name: "base64 payload",
			body: `{"Printer":"HP1","Name":"doc","Data":"aGVsbG8=","DataEncoding":"base64"}`,
			want: "Print request sent to HP1 as RAW data.",
		},
		{
			name: "bad base64",
			body: `{"Printer":"HP1","Name":"doc","Data":"!!!","DataEncoding":"base64"}`,
			want: "Print request 'Data' could not be decoded as base64.",
		},
		{
			name: "missing data",
			body: `{"Printer":"HP1","Name":"doc"}`,
			want: "Print requests requires a 'Printer', 'Name' and 'Data' parameters.",
		},
		{
			name: "unknown printer",
			body: `{"Printer":"Nope","Name":"doc","Data":"x"}`,
			want: "Nope is not found in the print service.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, http.MethodPost, "/Print", tt.body)
			assert.Equal(t, tt.want, responseText(t, w))
		})
	}
}

func TestPrintSpoolFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mem.InjectFault("HP1", memspool.Fault{Op: "startdoc", Code: 1804})

	w := env.do(t, http.MethodPost, "/Print", `{"Printer":"HP1","Name":"doc","Data":"x"}`)
	assert.Equal(t, "An error occurred during print request: 1804", responseText(t, w))

	entries, err := env.store.ListAudit(context.Background(), db.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, db.OutcomeFailed, entries[0].Outcome)
	assert.Equal(t, 1804, entries[0].ErrorCode)

	assert.Equal(t, []string{"print_failed"}, env.notifier.events)
	assert.Equal(t, 1804, env.notifier.printed[0].ErrorCode)
}

func TestPrintRejectedIsAuditedNotNotified(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/Print", `{"Printer":"Nope","Name":"doc","Data":"x"}`)

	entries, err := env.store.ListAudit(context.Background(), db.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, db.OutcomeRejected, entries[0].Outcome)
	assert.Empty(t, env.notifier.events)
}

func TestPrintInvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/Print", `{"Printer":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "purge all",
			body: `{"Command":"purge","Printer":"HP1"}`,
			want: "2 print jobs are affected by 'PURGE' on 'HP1'.",
		},
		{
			name: "pause by document name",
			body: `{"Command":"Pause","Printer":"HP1","DocumentName":"invoice"}`,
			want: "1 print jobs are affected by 'PAUSE' on 'HP1'.",
		},
		{
			name: "no match",
			body: `{"Command":"resume","Printer":"HP1","JobId":"999"}`,
			want: "0 print jobs are affected by 'RESUME' on 'HP1'.",
		},
		{
			name: "missing fields",
			body: `{"Printer":"HP1"}`,
			want: "Command requests requires a 'Command' and 'Printer' parameters.",
		},
		{
			name: "unsupported command",
			body: `{"Command":" restart ","Printer":"HP1"}`,
			want: "'RESTART' command is not supported.",
		},
		{
			name: "blank printer",
			body: `{"Command":"purge","Printer":"  "}`,
			want: "Command requires a 'Printer' parameter to have a value.",
		},
		{
			name: "unknown printer",
			body: `{"Command":"purge","Printer":"ghost"}`,
			want: "'GHOST' is not found in the print service.",
		},
		{
			name: "printer name must match exactly",
			body: `{"Command":"purge","Printer":"hp1"}`,
			want: "'HP1' is not found in the print service.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.mem.AddJob("HP1", "invoice")
			require.NoError(t, err)
			_, err = env.mem.AddJob("HP1", "label")
			require.NoError(t, err)

			w := env.do(t, http.MethodPost, "/Command", tt.body)
			assert.Equal(t, tt.want, responseText(t, w))
		})
	}
}

func TestCommandUnknownPrinterLeavesQueue(t *testing.T) {
	for _, printer := range []string{"hp1", "ghost"} {
		env := newTestEnv(t)
		_, err := env.mem.AddJob("HP1", "invoice")
		require.NoError(t, err)
		_, err = env.mem.AddJob("HP1", "label")
		require.NoError(t, err)
		env.mem.ResetCalls()

		w := env.do(t, http.MethodPost, "/Command", `{"Command":"purge","Printer":"`+printer+`"}`)
		assert.Contains(t, responseText(t, w), "is not found in the print service.")

		queues, err := env.mem.Queues(context.Background())
		require.NoError(t, err)
		assert.Len(t, queues[0].Jobs, 2, printer)
		assert.Empty(t, env.mem.Calls(), printer)
		assert.Empty(t, env.notifier.events, printer)
	}
}

func TestCommandNotifiesAndAudits(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.mem.AddJob("HP1", "invoice")
	require.NoError(t, err)

	env.do(t, http.MethodPost, "/Command", `{"Command":"purge","Printer":"HP1","JobId":"*"}`)

	require.Equal(t, []string{"command_dispatched"}, env.notifier.events)
	assert.Equal(t, 1, env.notifier.commands[0].Affected)
	assert.Equal(t, "purge", env.notifier.commands[0].Command)

	w := env.do(t, http.MethodGet, "/Audit?action=command", "")
	require.Equal(t, http.StatusOK, w.Code)

	var entries []db.AuditEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "job=*", entries[0].Selector)
	assert.Equal(t, 1, entries[0].Affected)
	assert.NotEmpty(t, entries[0].RequestID)
}

func TestListAuditValidatesQuery(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/Audit?action=reboot", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
