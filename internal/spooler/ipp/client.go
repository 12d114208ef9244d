// Package ipp is a spooler backend that talks to a CUPS or IPP Everywhere
// server.
package ipp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goipp "github.com/OpenPrinting/goipp"
)

type Config struct {
	Host               string
	Port               int
	UseTLS             bool
	User               string
	Password           string
	InsecureSkipVerify bool
	RequestingUser     string
	Timeout            time.Duration
}

// Client sends IPP requests over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 631
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RequestingUser == "" {
		cfg.RequestingUser = "printgate"
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS12,
					InsecureSkipVerify: cfg.InsecureSkipVerify,
				},
			},
		},
	}
}

// PrinterURI returns the printer-uri attribute value for a queue name.
func (c *Client) PrinterURI(name string) string {
	return "ipp://localhost/printers/" + url.PathEscape(strings.TrimSpace(name))
}

func (c *Client) urlFor(path string) string {
	scheme := "http"
	if c.cfg.UseTLS {
		scheme = "https"
	}
	return scheme + "://" + c.cfg.Host + ":" + strconv.Itoa(c.cfg.Port) + path
}

func pathForOp(op goipp.Op, printer string) string {
	switch op {
	case goipp.OpCancelJob, goipp.OpGetJobs, goipp.OpHoldJob, goipp.OpReleaseJob, goipp.OpCloseJob:
		return "/jobs/"
	case goipp.OpCreateJob, goipp.OpSendDocument, goipp.OpPrintJob, goipp.OpGetPrinterAttributes:
		if printer != "" {
			return "/printers/" + url.PathEscape(printer)
		}
		return "/"
	default:
		return "/"
	}
}

// StatusError is a non-successful IPP status in a response.
type StatusError struct {
	Op     goipp.Op
	Status goipp.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

// HTTPError is a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return "http " + e.Status
}

func (c *Client) newRequest(op goipp.Op) *goipp.Message {
	req := goipp.NewRequest(goipp.DefaultVersion, op, uint32(time.Now().UnixNano()))
	req.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	req.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String("en-US")))
	return req
}

// Send posts msg followed by data and decodes the reply. A reply whose status
// is an error is returned along with a *StatusError.
func (c *Client) Send(ctx context.Context, msg *goipp.Message, printer string, data io.Reader) (*goipp.Message, error) {
	if msg == nil {
		return nil, errors.New("missing ipp message")
	}
	payload, err := msg.EncodeBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode ipp request: %w", err)
	}
	body := io.Reader(bytes.NewReader(payload))
	if data != nil {
		body = io.MultiReader(bytes.NewReader(payload), data)
	}

	op := goipp.Op(msg.Code)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.urlFor(pathForOp(op, printer)), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", goipp.ContentType)
	req.Header.Set("Accept", goipp.ContentType)
	if c.cfg.User != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	out := &goipp.Message{}
	if err := out.Decode(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to decode ipp response: %w", err)
	}
	if status := goipp.Status(out.Code); status > goipp.StatusOkConflicting {
		return out, &StatusError{Op: op, Status: status}
	}
	return out, nil
}

// errorCode maps a client error to the numeric code reported to callers.
func errorCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return int(se.Status)
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

func isNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == goipp.StatusErrorNotFound
}
