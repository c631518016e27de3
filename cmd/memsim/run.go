package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memsim/internal/command"
	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/internal/printer"
	"github.com/joshuapare/memsim/internal/shell"
	"github.com/joshuapare/memsim/ledger"
)

var (
	// Session flags (run, replay and the bare root form)
	checkLayout bool
	strict      bool
	humanSizes  bool
	showStats   bool
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&checkLayout, "check", false, "Validate the region layout after every command")
	cmd.Flags().BoolVar(&strict, "strict", false, "Stop at the first failed command")
	cmd.Flags().BoolVar(&humanSizes, "human", false, "Print sizes as KiB/MiB")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print allocator statistics when the session ends")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <total_memory_size_in_bytes>",
		Short: "Run the allocator command loop on stdin",
		Long: `The run command creates an address space of the given size and reads
allocator commands from standard input until X or end of input. The
"allocator> " prompt is shown when standard input is a terminal.

The size may carry a unit suffix (4KB, 1MiB).

Example:
  memsim run 1048576
  memsim run 1MiB --check
  echo "RQ P0 4096 F
STAT" | memsim run 64KiB --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args, os.Stdin)
		},
	}
	addSessionFlags(cmd)
	return cmd
}

func runRun(ctx context.Context, args []string, in io.Reader) error {
	return runSession(ctx, args[0], "stdin", in, isTerminal(in) && !jsonOut)
}

// runSession runs one command loop over a fresh ledger.
func runSession(ctx context.Context, totalArg, source string, in io.Reader, interactive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	total, err := command.ParseSize(totalArg)
	if err != nil {
		return fmt.Errorf("invalid total memory size: %w", err)
	}
	l, err := ledger.New(total)
	if err != nil {
		return err
	}

	// Quiet mode drops results but keeps failed commands visible.
	out := stdout
	if quiet {
		out = io.Discard
	}
	opts := printer.Options{
		Format: printer.FormatText,
		Color:  !noColor && isTerminal(stdout),
		Human:  humanSizes,
		Errors: stdout,
	}
	if jsonOut {
		opts.Format = printer.FormatJSON
	}

	sh := shell.New(l, printer.New(out, opts), shell.Options{
		Interactive: interactive,
		Check:       checkLayout,
		Strict:      strict,
		Logger:      logger.L,
	})

	logger.L.Info("session started", "total", total, "source", source)
	printVerbose("Address space: %d bytes, reading from %s\n", total, source)

	runErr := sh.Run(ctx, in)
	if interactive && runErr == nil {
		printInfo("\n")
	}

	stats := l.Stats()
	logger.L.Info("session finished",
		"allocs", stats.AllocCalls,
		"alloc_failures", stats.AllocFailures,
		"releases", stats.ReleaseCalls,
		"compactions", stats.Compactions,
		"used", l.Used(),
	)

	if showStats {
		if err := printStats(l); err != nil {
			return err
		}
	}
	return runErr
}

// sessionStats is the --stats summary.
type sessionStats struct {
	Total         int64   `json:"total"`
	Used          int64   `json:"used"`
	Free          int64   `json:"free"`
	Regions       int     `json:"regions"`
	Fragmentation float64 `json:"fragmentation"`
	ledger.Stats
}

func printStats(l *ledger.Ledger) error {
	s := sessionStats{
		Total:         l.TotalSize(),
		Used:          l.Used(),
		Free:          l.Free(),
		Regions:       l.Len(),
		Fragmentation: l.Fragmentation(),
		Stats:         l.Stats(),
	}
	if jsonOut {
		return printJSON(s)
	}

	printInfo("\nAllocator Statistics:\n")
	printInfo("  Memory:        %d used / %d free / %d total\n", s.Used, s.Free, s.Total)
	printInfo("  Regions:       %d (fragmentation %.1f%%)\n", s.Regions, s.Fragmentation*100)
	printInfo("  Requests:      %d (%d failed, %d split)\n", s.AllocCalls, s.AllocFailures, s.Splits)
	printInfo("  Releases:      %d (%d failed, %d backward / %d forward merges)\n",
		s.ReleaseCalls, s.ReleaseFailures, s.CoalesceBackward, s.CoalesceForward)
	printInfo("  Compactions:   %d (%d bytes moved)\n", s.Compactions, s.BytesMoved)
	return nil
}
