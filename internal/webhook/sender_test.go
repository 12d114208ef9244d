package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrn/printgate/internal/logger"
)

func TestSenderDeliversSignedPayload(t *testing.T) {
	received := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		received <- r
		bodies <- b
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewSender(Config{
		Endpoints: []Endpoint{{URL: srv.URL, Secret: "s3cret"}},
	}, logger.NewTestLogger())
	s.Start()
	defer s.Stop()

	s.PrintSubmitted(PrintEventData{Printer: "HP1", Document: "label", DataType: "RAW", Bytes: 5})

	select {
	case r := <-received:
		body := <-bodies
		assert.Equal(t, "print_submitted", r.Header.Get("X-Webhook-Event"))

		var p struct {
			Event     string          `json:"event"`
			Data      json.RawMessage `json:"data"`
			Signature string          `json:"signature"`
		}
		require.NoError(t, json.Unmarshal(body, &p))
		assert.Equal(t, "print_submitted", p.Event)
		assert.Equal(t, Sign(p.Data, "s3cret"), p.Signature)
		assert.Equal(t, p.Signature, r.Header.Get("X-Webhook-Signature"))
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not delivered")
	}
}

func TestSenderFiltersEvents(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := NewSender(Config{
		Endpoints: []Endpoint{{URL: srv.URL, Events: []string{"command_dispatched"}}},
	}, logger.NewTestLogger())

	s.PrintFailed(PrintEventData{Printer: "HP1"})
	assert.Len(t, s.queue, 0)

	s.CommandDispatched(CommandEventData{Command: "cancel", Printer: "HP1", Affected: 1})
	assert.Len(t, s.queue, 1)
}

func TestSendWithRetry(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		wantErr  bool
		wantHits int32
	}{
		{"succeeds after server error", []int{500, 200}, false, 2},
		{"client error is not retried", []int{400}, true, 1},
		{"gives up after retry count", []int{503, 503, 503}, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := hits.Add(1)
				w.WriteHeader(tt.statuses[int(n)-1])
			}))
			defer srv.Close()

			s := NewSender(Config{RetryCount: 3, RetryDelay: time.Millisecond}, logger.NewTestLogger())
			err := s.sendWithRetry(&task{
				endpoint: Endpoint{URL: srv.URL},
				event:    EventPrintFailed,
				payload:  &Payload{Event: string(EventPrintFailed), Data: PrintEventData{}},
			})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantHits, hits.Load())
		})
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, isClientError(&StatusError{StatusCode: 404}))
	assert.False(t, isClientError(&StatusError{StatusCode: 502}))
	assert.False(t, isClientError(io.EOF))
}
