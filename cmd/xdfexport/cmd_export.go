package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/xdfexport/xdfexport-go/pkg/export"
	"github.com/xdfexport/xdfexport-go/pkg/pipeline"
)

var previewRaw bool

// exportCmd exports one definition against one image
var exportCmd = &cobra.Command{
	Use:   "export <definition.xdf> [firmware.bin]",
	Short: "Resolve a definition against a firmware image and write outputs",
	Long: `Parses the definition, decodes every element from the firmware image and
writes one file per requested format.

When the firmware image is omitted, the single image next to the definition
(or the one whose name contains the definition's name) is used. Outputs go to
<image dir>/<image name>_export.<ext> unless --output or output_dir is set.

Examples:
  xdfexport export ecu.xdf ecu.bin
  xdfexport export -f txt,md,csv -o reports/stock ecu.xdf stock.bin`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExport,
}

// batchCmd exports several images against one definition
var batchCmd = &cobra.Command{
	Use:   "batch <definition.xdf> <firmware.bin>...",
	Short: "Export several firmware images against one definition",
	Long: `Parses the definition once and exports every image. With --output, files
are written to that directory as <image name>.<ext>; otherwise each image
gets its own <image name>_export files next to it.

A failing image does not stop the others.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBatch,
}

// previewCmd shows what an export would contain
var previewCmd = &cobra.Command{
	Use:   "preview <definition.xdf> [firmware.bin]",
	Short: "Show element counts and resolved values without writing files",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPreview,
}

func runExport(cmd *cobra.Command, args []string) error {
	def, fw, err := inputs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	w := cmd.OutOrStdout()
	res, err := pipeline.Run(ctx, pipeline.Request{
		Definition: def,
		Firmware:   fw,
		OutputBase: outputBase(fw),
		Formats:    cfg.Formats,
		Categories: cfg.Categories,
	}, pipelineOptions(w)...)
	if err != nil {
		return err
	}

	remember(def, fw)
	printResult(w, res)
	return res.Err()
}

func runBatch(cmd *cobra.Command, args []string) error {
	def := resolveInput(args[0])
	images := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		images = append(images, resolveInput(a))
	}

	dir := output
	if dir == "" {
		dir = cfg.OutputDir
	}

	ctx, cancel := signalContext()
	defer cancel()

	w := cmd.OutOrStdout()
	res, err := pipeline.Batch(ctx, pipeline.BatchRequest{
		Definition: def,
		Firmware:   images,
		OutputDir:  dir,
		Formats:    cfg.Formats,
		Categories: cfg.Categories,
	}, pipelineOptions(w)...)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	ok := 0
	for _, item := range res.Items {
		switch {
		case item.Err != nil:
			fmt.Fprintf(w, "FAIL %s: %v\n", item.Firmware, item.Err)
		case item.Result != nil && !item.Result.OK():
			fmt.Fprintf(w, "PART %s: %d file(s), %d format(s) failed\n", item.Firmware, len(item.Result.Files), len(item.Result.FormatErrors))
		default:
			ok++
			remember(def, item.Firmware)
			fmt.Fprintf(w, "OK   %s: %d file(s)\n", item.Firmware, len(item.Result.Files))
		}
	}
	fmt.Fprintf(w, "%d of %d image(s) exported\n", ok, len(res.Items))
	return res.Err()
}

func runPreview(cmd *cobra.Command, args []string) error {
	def, fw, err := inputs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	w := cmd.OutOrStdout()
	cat, res, err := pipeline.Resolve(ctx, pipeline.Request{
		Definition: def,
		Firmware:   fw,
		Categories: cfg.Categories,
	}, pipelineOptions(nil)...)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Found: %s\n", res.Counts)
	fmt.Fprintf(w, "Resolved: %d, Unresolved: %d\n\n", res.Report.Resolved, res.Report.Unresolved)
	fmt.Fprint(w, renderMarkdown(export.RenderMarkdown(cat), previewRaw))
	return nil
}

// renderMarkdown styles md for the terminal, falling back to the raw text.
func renderMarkdown(md string, raw bool) string {
	if raw {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		logger.Debug("markdown renderer unavailable", "error", err)
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		logger.Debug("markdown render failed", "error", err)
		return md
	}
	return out
}

func printResult(w io.Writer, res *pipeline.Result) {
	if quiet {
		for _, f := range res.Files {
			fmt.Fprintln(w, f)
		}
	}
	for _, fe := range res.FormatErrors {
		fmt.Fprintf(w, "Failed: %v\n", fe)
	}
	if n := len(res.Report.Outcomes); n > 0 {
		fmt.Fprintf(w, "%d element(s) could not be resolved and are marked %s\n", n, export.Unresolved)
	}
}
