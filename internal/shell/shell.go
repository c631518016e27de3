// Package shell runs the allocator command loop: it reads one command per
// line, applies it to a ledger and prints the result.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/memsim/internal/command"
	"github.com/joshuapare/memsim/internal/printer"
	"github.com/joshuapare/memsim/ledger"
	"github.com/joshuapare/memsim/ledger/verify"
)

// DefaultPrompt is printed before each command in interactive mode.
const DefaultPrompt = "allocator> "

// ErrInvariant indicates that a layout check failed after a command.
var ErrInvariant = errors.New("shell: ledger invariant violated")

// Options controls the command loop.
type Options struct {
	// Prompt is written before each line when Interactive is set.
	// Default: DefaultPrompt
	Prompt string

	// Interactive enables the prompt.
	Interactive bool

	// Check validates the ledger layout after every command.
	Check bool

	// Strict stops the loop at the first failed command.
	Strict bool

	// Logger receives one debug record per command. Default: discard.
	Logger *slog.Logger
}

// Shell drives a ledger from a command stream.
type Shell struct {
	mgr  ledger.Manager
	out  *printer.Printer
	opts Options
	log  *slog.Logger

	line int
}

// New creates a Shell over m that renders through p.
func New(m ledger.Manager, p *printer.Printer, opts Options) *Shell {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Shell{mgr: m, out: p, opts: opts, log: log}
}

// Run reads commands from in until X, end of input, or ctx is done.
// Failed commands are reported and the loop continues unless Strict is set.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.opts.Interactive {
			if err := s.out.Prompt(s.opts.Prompt); err != nil {
				return err
			}
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return fmt.Errorf("read commands: %w", err)
			}
			return nil
		}
		s.line++

		done, err := s.ExecuteLine(sc.Text())
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// ExecuteLine parses and executes one line. It returns done=true for X.
// The returned error is nil for failures that were reported and tolerated.
func (s *Shell) ExecuteLine(text string) (done bool, err error) {
	cmd, perr := command.Parse(text)
	if perr != nil {
		s.log.Debug("parse failed", "line", s.line, "input", text, "err", perr)
		return false, s.fail(perr)
	}
	return s.Execute(cmd)
}

// Execute applies one parsed command.
func (s *Shell) Execute(cmd command.Command) (done bool, err error) {
	if cmd.Kind != command.KindEmpty {
		s.log.Debug("command", "line", s.line, "kind", cmd.Kind.String(), "cmd", cmd.String())
	}

	switch cmd.Kind {
	case command.KindEmpty:
		return false, nil

	case command.KindExit:
		return true, nil

	case command.KindRequest:
		r, aerr := s.mgr.Allocate(cmd.Size, cmd.Owner, cmd.Strategy)
		if aerr != nil {
			return false, s.fail(aerr)
		}
		if err := s.out.Allocated(r, cmd.Strategy); err != nil {
			return false, err
		}

	case command.KindRelease:
		r, rerr := s.mgr.Release(cmd.Owner)
		if rerr != nil {
			return false, s.fail(rerr)
		}
		if err := s.out.Released(r); err != nil {
			return false, err
		}

	case command.KindCompact:
		report := s.mgr.Compact()
		s.log.Debug("compacted", "moved", report.Moved, "reclaimed", report.Reclaimed)
		if err := s.out.Compacted(report); err != nil {
			return false, err
		}

	case command.KindStatus:
		if err := s.out.Status(s.mgr.Snapshot(), s.mgr.TotalSize()); err != nil {
			return false, err
		}

	default:
		return false, fmt.Errorf("unhandled command kind %s", cmd.Kind)
	}

	return false, s.check()
}

// fail reports err and decides whether the loop continues.
func (s *Shell) fail(err error) error {
	if perr := s.out.Error(err); perr != nil {
		return perr
	}
	if s.opts.Strict {
		return fmt.Errorf("line %d: %w", s.line, err)
	}
	return nil
}

func (s *Shell) check() error {
	if !s.opts.Check {
		return nil
	}
	if err := verify.All(s.mgr.Snapshot(), s.mgr.TotalSize()); err != nil {
		s.log.Error("invariant check failed", "line", s.line, "err", err)
		return fmt.Errorf("%w: line %d: %v", ErrInvariant, s.line, err)
	}
	return nil
}
