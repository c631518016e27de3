package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newReplayCmd())
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <total_memory_size_in_bytes> <script>",
		Short: "Replay a command script",
		Long: `The replay command runs every command in a script file against a
fresh address space. Use "-" to read the script from standard input.
Lines starting with '#' are comments.

Failed commands are reported and replay continues, unless --strict is set.

Example:
  memsim replay 1000 session.txt
  memsim replay 1000 session.txt --check --strict
  memsim replay 64KiB - --json < session.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args)
		},
	}
	addSessionFlags(cmd)
	return cmd
}

func runReplay(ctx context.Context, args []string) error {
	totalArg, path := args[0], args[1]

	var in io.Reader = os.Stdin
	source := "stdin"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
		source = path
	}

	printVerbose("Replaying %s\n", source)
	return runSession(ctx, totalArg, source, in, false)
}
