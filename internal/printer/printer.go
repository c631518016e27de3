package printer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/joshuapare/memsim/internal/command"
	"github.com/joshuapare/memsim/ledger"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs the allocator's human-readable messages.
	FormatText Format = "text"

	// FormatJSON outputs one JSON object per event.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// Color enables ANSI colors (text format only).
	// Default: false
	Color bool

	// Human prints sizes as KiB/MiB instead of raw byte counts (text format only).
	// Default: false
	Human bool

	// Errors receives the output of Error, so failures stay visible when
	// the main writer is discarded.
	// Default: the main writer
	Errors io.Writer
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format: FormatText,
	}
}

// Printer renders ledger results.
type Printer struct {
	opts   Options
	writer io.Writer
	enc    *json.Encoder
	errw   io.Writer
	errEnc *json.Encoder

	owner *color.Color
	free  *color.Color
	bad   *color.Color
	ok    *color.Color
}

// New creates a new Printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	p := &Printer{
		opts:   opts,
		writer: w,
		enc:    json.NewEncoder(w),
		errw:   w,
		errEnc: json.NewEncoder(w),
		owner:  color.New(color.FgCyan, color.Bold),
		free:   color.New(color.FgHiBlack),
		bad:    color.New(color.FgRed),
		ok:     color.New(color.FgGreen),
	}
	if opts.Errors != nil && opts.Errors != w {
		p.errw = opts.Errors
		p.errEnc = json.NewEncoder(opts.Errors)
	}
	for _, c := range []*color.Color{p.owner, p.free, p.bad, p.ok} {
		if opts.Color && opts.Format == FormatText {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Prompt writes the interactive prompt. JSON output has no prompt.
func (p *Printer) Prompt(prompt string) error {
	if p.opts.Format == FormatJSON {
		return nil
	}
	_, err := io.WriteString(p.writer, prompt)
	return err
}

// Allocated reports a successful request.
func (p *Printer) Allocated(r ledger.Region, strategy ledger.Strategy) error {
	if p.opts.Format == FormatJSON {
		return p.enc.Encode(allocatedEvent{
			Event:    "allocated",
			Owner:    r.Owner,
			Start:    r.Start,
			Size:     r.Size,
			Strategy: strategy,
		})
	}
	_, err := fmt.Fprintf(p.writer, "Allocated %s for process %s at address %d\n",
		p.size(r.Size), p.owner.Sprint(r.Owner), r.Start)
	return err
}

// Released reports a successful release.
func (p *Printer) Released(r ledger.Region) error {
	if p.opts.Format == FormatJSON {
		return p.enc.Encode(releasedEvent{
			Event: "released",
			Owner: r.Owner,
			Start: r.Start,
			Size:  r.Size,
		})
	}
	_, err := fmt.Fprintf(p.writer, "Releasing memory for process %s (size: %s, address: %d)\n",
		p.owner.Sprint(r.Owner), p.size(r.Size), r.Start)
	return err
}

// Compacted reports a finished compaction.
func (p *Printer) Compacted(report ledger.CompactionReport) error {
	if p.opts.Format == FormatJSON {
		return p.enc.Encode(compactedEvent{Event: "compacted", CompactionReport: report})
	}
	_, err := fmt.Fprintln(p.writer, p.ok.Sprint("Memory compaction completed."))
	return err
}

// Status prints the full region list and the total size.
func (p *Printer) Status(regions []ledger.Region, total int64) error {
	if p.opts.Format == FormatJSON {
		return p.enc.Encode(newStatusEvent(regions, total))
	}

	if _, err := fmt.Fprint(p.writer, "\nMemory Status:\n"); err != nil {
		return err
	}
	for _, r := range regions {
		var err error
		if r.Free() {
			_, err = fmt.Fprintf(p.writer, "Address [%d:%d] %s\n",
				r.Start, r.Last(), p.free.Sprintf("Unused (%s)", p.size(r.Size)))
		} else {
			_, err = fmt.Fprintf(p.writer, "Address [%d:%d] Process %s (%s)\n",
				r.Start, r.Last(), p.owner.Sprint(r.Owner), p.size(r.Size))
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(p.writer, "Total memory: %s\n", p.size(total))
	return err
}

// Error reports a failed operation or an unparsable line.
func (p *Printer) Error(err error) error {
	if p.opts.Format == FormatJSON {
		return p.errEnc.Encode(errorEvent{Event: "error", Code: errorCode(err), Error: err.Error()})
	}

	var (
		ferr *ledger.FitError
		oerr *ledger.OwnerError
		serr *command.SyntaxError
		msg  string
	)
	switch {
	case errors.As(err, &ferr):
		msg = fmt.Sprintf("Error: Not enough contiguous memory for process %s (%s) using %s strategy.",
			ferr.Owner, p.size(ferr.Size), ferr.Strategy.Code())
	case errors.As(err, &oerr) && errors.Is(err, ledger.ErrNotFound):
		msg = fmt.Sprintf("Error: Process %s not found in memory.", oerr.Owner)
	case errors.As(err, &oerr):
		msg = fmt.Sprintf("Error: Process %s already holds memory.", oerr.Owner)
	case errors.As(err, &serr) && errors.Is(err, command.ErrUnknownCommand):
		msg = "Invalid command. " + command.Usage
	default:
		msg = fmt.Sprintf("Error: %v", err)
	}
	_, werr := fmt.Fprintln(p.errw, p.bad.Sprint(msg))
	return werr
}

func (p *Printer) size(n int64) string {
	if p.opts.Human && n >= 0 {
		return humanize.IBytes(uint64(n))
	}
	return fmt.Sprintf("%d bytes", n)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ledger.ErrNoFit):
		return "no_fit"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	case errors.Is(err, ledger.ErrDuplicateOwner):
		return "duplicate_owner"
	case errors.Is(err, command.ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, command.ErrUsage):
		return "usage"
	case errors.Is(err, ledger.ErrBadSize), errors.Is(err, ledger.ErrBadOwner), errors.Is(err, ledger.ErrBadStrategy):
		return "invalid_argument"
	}
	return "internal"
}
