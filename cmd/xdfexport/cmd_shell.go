package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdfexport/xdfexport-go/cmd/xdfexport/interactive"
	"github.com/xdfexport/xdfexport-go/pkg/pipeline"
	"github.com/xdfexport/xdfexport-go/pkg/watch"
)

// shellCmd starts the interactive browser
var shellCmd = &cobra.Command{
	Use:   "shell <definition.xdf> [firmware.bin]",
	Short: "Browse resolved values interactively",
	Long: `Resolves the definition and opens a prompt for listing, searching and
showing elements. The export command inside the shell writes the current
definition with the configured formats.

Type 'help' at the prompt for the command list.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShell,
}

// watchCmd re-exports when the inputs change
var watchCmd = &cobra.Command{
	Use:   "watch <definition.xdf> [firmware.bin]",
	Short: "Export, then export again whenever the definition or image changes",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runWatch,
}

func runShell(cmd *cobra.Command, args []string) error {
	def, fw, err := inputs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	w := cmd.OutOrStdout()
	sh := interactive.New(pipeline.Request{
		Definition: def,
		Firmware:   fw,
		OutputBase: outputBase(fw),
		Formats:    cfg.Formats,
		Categories: cfg.Categories,
	}, w, pipelineOptions(nil)...)
	if err := sh.Load(ctx); err != nil {
		return err
	}
	remember(def, fw)
	return sh.Run(ctx)
}

func runWatch(cmd *cobra.Command, args []string) error {
	def, fw, err := inputs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return watchInputs(ctx, cmd.OutOrStdout(), pipeline.Request{
		Definition: def,
		Firmware:   fw,
		OutputBase: outputBase(fw),
		Formats:    cfg.Formats,
		Categories: cfg.Categories,
	}, watch.DefaultDebounce)
}

// watchInputs exports req once, then again after every settled change to its
// definition or image, until ctx is done.
func watchInputs(ctx context.Context, w io.Writer, req pipeline.Request, debounce time.Duration) error {
	watcher, err := watch.New([]string{req.Definition, req.Firmware},
		watch.WithDebounce(debounce), watch.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to watch inputs: %w", err)
	}

	exportOnce(ctx, w, req)
	fmt.Fprintf(w, "Watching %s and %s (Ctrl+C to stop)\n", req.Definition, req.Firmware)
	return watcher.Run(ctx, func(ctx context.Context, changed []string) {
		fmt.Fprintf(w, "\nChanged: %s\n", strings.Join(changed, ", "))
		exportOnce(ctx, w, req)
	})
}

// exportOnce runs one export for watch mode. Failures are reported and the
// watch continues.
func exportOnce(ctx context.Context, w io.Writer, req pipeline.Request) {
	res, err := pipeline.Run(ctx, req, pipelineOptions(w)...)
	if err != nil {
		if ctx.Err() == nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		return
	}
	printResult(w, res)
}
