package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

// Directory lists the printers installed on the spooler.
type Directory struct {
	sp spooler.Spooler
}

func NewDirectory(sp spooler.Spooler) *Directory {
	return &Directory{sp: sp}
}

func (d *Directory) ListPrinters(ctx context.Context) ([]spooler.Printer, error) {
	printers, err := d.sp.Printers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate printers: %w", err)
	}
	return printers, nil
}

// Lookup finds a printer by exact name.
func (d *Directory) Lookup(ctx context.Context, name string) (spooler.Printer, bool, error) {
	printers, err := d.ListPrinters(ctx)
	if err != nil {
		return spooler.Printer{}, false, err
	}
	for _, p := range printers {
		if p.Name == name {
			return p, true, nil
		}
	}
	return spooler.Printer{}, false, nil
}

// StatusProber reports live device flags for a printer port. ok is false when
// the port cannot be probed.
type StatusProber interface {
	Probe(ctx context.Context, port string) (status spooler.QueueStatus, ok bool)
}

// Inspector lists print queues and their jobs.
type Inspector struct {
	sp     spooler.Spooler
	prober StatusProber
	log    logger.Logger
}

func NewInspector(sp spooler.Spooler, prober StatusProber, log logger.Logger) *Inspector {
	return &Inspector{sp: sp, prober: prober, log: log.WithComponent("inspector")}
}

func (i *Inspector) ListQueues(ctx context.Context) ([]spooler.Queue, error) {
	queues, err := i.sp.Queues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate queues: %w", err)
	}

	if i.prober == nil {
		return queues, nil
	}

	for idx := range queues {
		st, ok := i.prober.Probe(ctx, queues[idx].Port)
		if !ok {
			continue
		}
		queues[idx].Status = queues[idx].Status.Merge(st)
		i.log.Debug().
			Str("printer", queues[idx].Printer).
			Str("port", queues[idx].Port).
			Msg("Merged device status")
	}

	return queues, nil
}

// Queue returns the queue whose printer name matches ignoring case and
// surrounding space. Jobs are read fresh from the spooler.
func (i *Inspector) Queue(ctx context.Context, printer string) (spooler.Queue, bool, error) {
	queues, err := i.sp.Queues(ctx)
	if err != nil {
		return spooler.Queue{}, false, fmt.Errorf("failed to enumerate queues: %w", err)
	}
	return findQueue(queues, printer)
}

func findQueue(queues []spooler.Queue, printer string) (spooler.Queue, bool, error) {
	want := strings.TrimSpace(printer)
	for _, q := range queues {
		if strings.EqualFold(strings.TrimSpace(q.Printer), want) {
			return q, true, nil
		}
	}
	return spooler.Queue{}, false, nil
}

// Validator gates requests before they reach the spooler.
type Validator struct {
	dir *Directory
}

func NewValidator(dir *Directory) *Validator {
	return &Validator{dir: dir}
}

// PrinterExists reports whether a printer with exactly this name is installed.
func (v *Validator) PrinterExists(ctx context.Context, name string) (bool, error) {
	_, ok, err := v.dir.Lookup(ctx, name)
	return ok, err
}
