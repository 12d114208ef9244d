package core

import (
	"context"

	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

// CommandResult is the outcome of a dispatched command.
type CommandResult struct {
	Command  Command
	Printer  string
	Affected int
}

// Dispatcher applies a command to the selected jobs of one printer.
type Dispatcher struct {
	sp     spooler.Spooler
	queues *Inspector
	log    logger.Logger
}

func NewDispatcher(sp spooler.Spooler, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		sp:     sp,
		queues: NewInspector(sp, nil, log),
		log:    log.WithComponent("dispatcher"),
	}
}

func control(cmd Command) (spooler.JobControl, bool) {
	switch cmd {
	case CommandPurge:
		return spooler.JobCancel, true
	case CommandPause:
		return spooler.JobPause, true
	case CommandResume:
		return spooler.JobResume, true
	default:
		return 0, false
	}
}

// Dispatch returns the number of matched jobs a transition was issued for.
// A printer with no queue, or no matching jobs, yields zero. A job that
// rejects its transition is logged and still counted.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command, printer string, sel Selector) (int, error) {
	ctl, ok := control(cmd)
	if !ok {
		return 0, ErrUnknownCommand
	}

	q, found, err := d.queues.Queue(ctx, printer)
	if err != nil {
		return 0, err
	}
	if !found {
		d.log.Debug().Str("printer", printer).Msg("No queue for printer")
		return 0, nil
	}

	affected := 0
	for _, job := range q.Jobs {
		if !sel.Matches(job) {
			continue
		}
		if err := d.sp.ControlJob(ctx, q.Printer, job.ID, ctl); err != nil {
			if ctx.Err() != nil {
				return affected, ctx.Err()
			}
			d.log.Warn().
				Err(err).
				Str("printer", q.Printer).
				Str("job_id", job.ID).
				Str("command", cmd.String()).
				Msg("Job transition rejected")
		}
		affected++
	}

	d.log.Info().
		Str("printer", q.Printer).
		Str("command", cmd.String()).
		Str("selector", sel.String()).
		Int("affected", affected).
		Msg("Command dispatched")

	return affected, nil
}
