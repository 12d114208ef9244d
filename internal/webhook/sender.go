// Package webhook delivers print and command events to configured HTTP
// endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orrn/printgate/internal/logger"
)

type Event string

const (
	EventPrintSubmitted    Event = "print_submitted"
	EventPrintFailed       Event = "print_failed"
	EventCommandDispatched Event = "command_dispatched"
)

type Payload struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Signature string    `json:"signature,omitempty"`
}

type PrintEventData struct {
	RequestID string `json:"request_id,omitempty"`
	Printer   string `json:"printer"`
	Document  string `json:"document"`
	DataType  string `json:"data_type,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

type CommandEventData struct {
	RequestID string `json:"request_id,omitempty"`
	Command   string `json:"command"`
	Printer   string `json:"printer"`
	Selector  string `json:"selector"`
	Affected  int    `json:"affected"`
}

type Endpoint struct {
	URL    string
	Secret string
	// Events to deliver; empty means all.
	Events []string
}

func (e Endpoint) wants(ev Event) bool {
	if len(e.Events) == 0 {
		return true
	}
	for _, name := range e.Events {
		if name == "*" || strings.EqualFold(name, string(ev)) {
			return true
		}
	}
	return false
}

type Config struct {
	Endpoints   []Endpoint
	RetryCount  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	WorkerCount int
	QueueSize   int
}

type task struct {
	endpoint Endpoint
	event    Event
	payload  *Payload
	attempt  int
}

// StatusError is a non-2xx reply from an endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error: %d", e.StatusCode)
}

type Sender struct {
	endpoints  []Endpoint
	httpClient *http.Client
	retryCount int
	retryDelay time.Duration
	workers    int
	queue      chan *task
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	log        logger.Logger
}

func NewSender(config Config, log logger.Logger) *Sender {
	if config.RetryCount <= 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}

	return &Sender{
		endpoints: config.Endpoints,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retryCount: config.RetryCount,
		retryDelay: config.RetryDelay,
		workers:    config.WorkerCount,
		queue:      make(chan *task, config.QueueSize),
		stopCh:     make(chan struct{}),
		log:        log.WithComponent("webhook"),
	}
}

func (s *Sender) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Sender) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Sender) PrintSubmitted(data PrintEventData) {
	s.enqueue(EventPrintSubmitted, data)
}

func (s *Sender) PrintFailed(data PrintEventData) {
	s.enqueue(EventPrintFailed, data)
}

func (s *Sender) CommandDispatched(data CommandEventData) {
	s.enqueue(EventCommandDispatched, data)
}

func (s *Sender) enqueue(event Event, data any) {
	for _, ep := range s.endpoints {
		if !ep.wants(event) {
			continue
		}

		t := &task{
			endpoint: ep,
			event:    event,
			payload: &Payload{
				ID:        uuid.NewString(),
				Event:     string(event),
				Timestamp: time.Now().UTC(),
				Data:      data,
			},
		}

		select {
		case s.queue <- t:
		default:
			s.log.Warn().Str("url", ep.URL).Str("event", string(event)).Msg("Webhook queue full, dropping event")
		}
	}
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.queue:
			if err := s.sendWithRetry(t); err != nil {
				s.log.Error().Err(err).
					Int("worker", id).
					Str("url", t.endpoint.URL).
					Str("event", string(t.event)).
					Int("attempts", t.attempt).
					Msg("Webhook delivery failed")
			}
		}
	}
}

var errShutdown = errors.New("shutdown requested")

func (s *Sender) sendWithRetry(t *task) error {
	var lastErr error
	for t.attempt < s.retryCount {
		t.attempt++

		err := s.sendRequest(t.endpoint, t.payload)
		if err == nil {
			return nil
		}
		lastErr = err

		if isClientError(err) {
			return err
		}

		if t.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(t.attempt-1))
			s.log.Debug().Err(err).
				Str("url", t.endpoint.URL).
				Int("attempt", t.attempt).
				Dur("backoff", backoff).
				Msg("Retrying webhook")

			select {
			case <-s.stopCh:
				return errShutdown
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) sendRequest(ep Endpoint, payload *Payload) error {
	dataBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	payload.Signature = ""
	if ep.Secret != "" {
		payload.Signature = Sign(dataBytes, ep.Secret)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", payload.Event)
	if payload.Signature != "" {
		req.Header.Set("X-Webhook-Signature", payload.Signature)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}
