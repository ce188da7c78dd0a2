// Command xdfexport exports TunerPro XDF definitions resolved against firmware
// images to text, Markdown, JSON, CSV, YAML and CBOR.
//
// Usage:
//
//	xdfexport <command> [flags]
//
// Examples:
//
//	# Export to the configured formats next to the image
//	xdfexport export ecu.xdf ecu.bin
//
//	# Pick the image next to the definition and write text and CSV
//	xdfexport export -f txt,csv ecu.xdf
//
//	# Export several images against one definition
//	xdfexport batch -o out/ ecu.xdf stock.bin tuned.bin
//
//	# Browse the resolved values
//	xdfexport shell ecu.xdf ecu.bin
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xdfexport/xdfexport-go/pkg/config"
	"github.com/xdfexport/xdfexport-go/pkg/history"
	"github.com/xdfexport/xdfexport-go/pkg/pipeline"
	"github.com/xdfexport/xdfexport-go/pkg/runlog"
	"github.com/xdfexport/xdfexport-go/pkg/scaling"
)

var (
	// Global flags
	configPath string
	logLevel   string
	workers    int
	formats    []string
	output     string
	categories []string
	quiet      bool

	// Effective settings after config and flags are merged
	cfg = config.Default()

	// Operational logger
	logger = slog.New(slog.DiscardHandler)

	// Run event sink
	events    runlog.Logger = runlog.NoopLogger{}
	eventFile *runlog.FileLogger

	// Scaling programs shared by every run of this process
	programs = scaling.NewCache()
)

// outputCommands carry the shared --format, --output and --category flags.
// Other commands may reuse those names for their own options.
var outputCommands = []*cobra.Command{exportCmd, batchCmd, watchCmd, shellCmd}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "xdfexport",
	Short: "Export XDF definitions resolved against firmware images",
	Long: `xdfexport reads a TunerPro XDF definition, decodes every constant, flag
and table it describes from a binary firmware image, and writes the result
in one or more output formats (txt, md, json, csv, yaml, cbor).

Settings come from ~/.config/xdfexport/config.yaml (or --config); flags
override them.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "j", 1, "Parallel workers for resolving and batch runs")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	// Output flags shared by export-like commands
	for _, c := range outputCommands {
		c.Flags().StringSliceVarP(&formats, "format", "f", nil, "Output formats (comma-separated)")
		c.Flags().StringVarP(&output, "output", "o", "", "Output base path (batch: output directory)")
		c.Flags().StringSliceVarP(&categories, "category", "c", nil, "Export only these categories")
	}
	previewCmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "Preview only these categories")
	previewCmd.Flags().BoolVar(&previewRaw, "raw", false, "Print Markdown without terminal styling")

	// Log subcommands
	logViewCmd.Flags().StringVar(&logRunID, "run", "", "Filter by run ID")
	logViewCmd.Flags().StringVar(&logStage, "stage", "", "Filter by stage (start, parse, load, counts, resolve, format, done)")
	logViewCmd.Flags().StringVar(&logMinLevel, "level", "", "Minimum level (info, warn, error)")
	logExportCmd.Flags().StringVar(&logFormat, "format", "jsonl", "Output format (jsonl, csv)")
	logExportCmd.Flags().StringVarP(&logOutput, "output", "o", "", "Output file (default: stdout)")
	logFilterCmd.Flags().StringVarP(&logOutput, "output", "o", "", "Output file (required)")
	logFilterCmd.Flags().StringVar(&logRunID, "run", "", "Filter by run ID")
	logFilterCmd.Flags().StringVar(&logDefinition, "definition", "", "Filter by definition path")
	logFilterCmd.Flags().StringVar(&logSince, "since", "", "Events at or after this time (RFC3339)")
	logFilterCmd.Flags().StringVar(&logUntil, "until", "", "Events at or before this time (RFC3339)")
	logFilterCmd.Flags().StringVar(&logStage, "stage", "", "Filter by stage")
	logFilterCmd.Flags().StringVar(&logMinLevel, "level", "", "Minimum level (info, warn, error)")
	_ = logFilterCmd.MarkFlagRequired("output")

	logCmd.AddCommand(logViewCmd)
	logCmd.AddCommand(logExportCmd)
	logCmd.AddCommand(logFilterCmd)
	logCmd.AddCommand(logStatsCmd)

	recentCmd.AddCommand(recentListCmd)
	recentCmd.AddCommand(recentClearCmd)
	recentCmd.AddCommand(recentDirCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	// Add commands to root
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config file, applies flag overrides and opens the log sinks.
func setup(cmd *cobra.Command, args []string) error {
	path, required := configPath, configPath != ""
	if !required {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		loaded, err := config.Load(path, required)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if slices.Contains(outputCommands, cmd) && flags.Changed("format") {
		cfg.Formats = formats
	}
	if (slices.Contains(outputCommands, cmd) || cmd == previewCmd) && flags.Changed("category") {
		cfg.Categories = categories
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	logger = l

	var sinks []runlog.Logger
	if cfg.Logging.EventLog != "" {
		fl, err := runlog.NewFileLogger(cfg.Logging.EventLog)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		eventFile = fl
		sinks = append(sinks, fl)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		sinks = append(sinks, runlog.NewSlogAdapter(logger))
	}
	if len(sinks) > 0 {
		events = runlog.NewMultiLogger(sinks...)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if eventFile == nil {
		return nil
	}
	logger.Debug("closing run log", "path", cfg.Logging.EventLog, "events", eventFile.Events())
	err := eventFile.Close()
	eventFile = nil
	events = runlog.NoopLogger{}
	return err
}

// newLogger builds the operational logger from the logging settings.
func newLogger(l config.Logging, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// pipelineOptions returns the run options for the current settings. Progress
// lines go to w unless w is nil or --quiet is set.
func pipelineOptions(w io.Writer) []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithEventLogger(events),
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithCache(programs),
	}
	if w != nil && !quiet {
		opts = append(opts, pipeline.WithProgress(func(p pipeline.Progress) {
			fmt.Fprintln(w, p.Message)
		}))
	}
	return opts
}

// historyStore returns the recent-files store, or nil when no location is known.
func historyStore() *history.Store {
	path := cfg.HistoryFile
	if path == "" {
		p, err := history.DefaultPath()
		if err != nil {
			logger.Debug("history disabled", "error", err)
			return nil
		}
		path = p
	}
	return history.NewStore(path)
}

// resolveInput finds a file named on the command line. Paths that do not exist
// as given are tried in the default folder.
func resolveInput(path string) string {
	if _, err := os.Stat(path); err == nil || filepath.IsAbs(path) {
		return path
	}
	dir := cfg.DefaultDir
	if dir == "" {
		if s := historyStore(); s != nil {
			dir, _ = s.DefaultDir()
		}
	}
	if dir == "" {
		return path
	}
	if candidate := filepath.Join(dir, path); fileExists(candidate) {
		return candidate
	}
	return path
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// inputs returns the definition and firmware paths from args. A missing
// firmware argument is looked up next to the definition.
func inputs(args []string) (definition, fw string, err error) {
	definition = resolveInput(args[0])
	if len(args) > 1 {
		return definition, resolveInput(args[1]), nil
	}
	fw, err = pipeline.FindMatchingFirmware(definition)
	if err != nil {
		return "", "", err
	}
	return definition, fw, nil
}

// outputBase returns the output base for one image: --output, then the
// configured output directory, then next to the image.
func outputBase(fw string) string {
	if output != "" {
		return output
	}
	base := pipeline.DefaultOutputBase(fw)
	if cfg.OutputDir != "" {
		return filepath.Join(cfg.OutputDir, filepath.Base(base))
	}
	return base
}

// remember records a successful pair in the recent-files list.
func remember(definition, fw string) {
	s := historyStore()
	if s == nil {
		return
	}
	if err := s.Add(definition, fw); err != nil {
		logger.Warn("failed to update recent files", "error", err)
	}
}
