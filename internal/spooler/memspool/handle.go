package memspool

import (
	"context"
	"errors"
	"fmt"

	"github.com/orrn/printgate/internal/spooler"
)

var errNoDocument = errors.New("no document started")

type handle struct {
	s      *Spooler
	p      *printer
	job    *job
	ended  bool
	closed bool
}

func (h *handle) StartDoc(ctx context.Context, doc spooler.DocInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	h.s.calls = append(h.s.calls, fmt.Sprintf("startdoc %s %s", doc.Name, doc.DataType))
	if err := h.check("startdoc"); err != nil {
		return err
	}
	if err := h.s.fault(h.p, "startdoc"); err != nil {
		return err
	}
	h.job = h.s.enqueue(h.p, doc.Name)
	return nil
}

func (h *handle) StartPage(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	h.s.calls = append(h.s.calls, "startpage")
	if err := h.check("startpage"); err != nil {
		return err
	}
	if h.job == nil {
		return spooler.Wrap("startpage", h.p.info.Name, codeInvalidHandle, errNoDocument)
	}
	return h.s.fault(h.p, "startpage")
}

func (h *handle) Write(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	h.s.calls = append(h.s.calls, fmt.Sprintf("write %d", len(p)))
	if err := h.check("write"); err != nil {
		return 0, err
	}
	if h.job == nil {
		return 0, spooler.Wrap("write", h.p.info.Name, codeInvalidHandle, errNoDocument)
	}

	n := len(p)
	if f, ok := h.s.faults[faultKey(h.p.info.Name, "write")]; ok {
		if f.Short {
			n = len(p) / 2
		} else if f.Code != 0 {
			return 0, spooler.Wrap("write", h.p.info.Name, f.Code, errors.New("injected fault"))
		}
	}
	h.job.data = append(h.job.data, p[:n]...)
	return n, nil
}

func (h *handle) EndPage(ctx context.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	h.s.calls = append(h.s.calls, "endpage")
	if err := h.check("endpage"); err != nil {
		return err
	}
	return h.s.fault(h.p, "endpage")
}

func (h *handle) EndDoc(ctx context.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	h.s.calls = append(h.s.calls, "enddoc")
	if err := h.check("enddoc"); err != nil {
		return err
	}
	if err := h.s.fault(h.p, "enddoc"); err != nil {
		return err
	}
	h.ended = true
	return nil
}

// Close releases the handle. A document that was started but never ended is
// dropped from the queue.
func (h *handle) Close() error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	h.s.calls = append(h.s.calls, "close")
	if h.closed {
		return spooler.Wrap("close", h.p.info.Name, codeInvalidHandle, spooler.ErrInvalidHandle)
	}
	h.closed = true
	if h.job != nil && !h.ended {
		h.p.remove(h.job.ID)
	}
	return h.s.fault(h.p, "close")
}

func (h *handle) check(op string) error {
	if h.closed {
		return spooler.Wrap(op, h.p.info.Name, codeInvalidHandle, spooler.ErrInvalidHandle)
	}
	return nil
}
