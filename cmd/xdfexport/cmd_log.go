package main

import (
	"github.com/spf13/cobra"

	"github.com/xdfexport/xdfexport-go/cmd/xdfexport/commands"
)

var (
	logRunID      string
	logStage      string
	logMinLevel   string
	logFormat     string
	logOutput     string
	logDefinition string
	logSince      string
	logUntil      string
)

// logCmd groups the run event log tools
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect run event logs (.xlog)",
	Long: `Run event logs are written when logging.event_log is set in the config.
Each export appends its progress, counts, unresolved elements and result.`,
}

var logViewCmd = &cobra.Command{
	Use:   "view <file.xlog>",
	Short: "View a run log in human-readable form",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogView,
}

var logExportCmd = &cobra.Command{
	Use:   "export <file.xlog>",
	Short: "Export a run log to JSON lines or CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunExport(args[0], logFormat, logOutput)
	},
}

var logFilterCmd = &cobra.Command{
	Use:   "filter <file.xlog>",
	Short: "Write matching events to a new run log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunFilter(args[0], commands.FilterOptions{
			Output:     logOutput,
			RunID:      logRunID,
			Definition: logDefinition,
			TimeStart:  logSince,
			TimeEnd:    logUntil,
			Stage:      logStage,
			MinLevel:   logMinLevel,
		}, cmd.OutOrStdout())
	},
}

var logStatsCmd = &cobra.Command{
	Use:   "stats <file.xlog>",
	Short: "Summarize the runs in a log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunStatsCommand(args[0], cmd.OutOrStdout())
	},
}

func runLogView(cmd *cobra.Command, args []string) error {
	filter := commands.ViewFilter{RunID: logRunID}
	if logStage != "" {
		s, err := commands.ParseStageFlag(logStage)
		if err != nil {
			return err
		}
		filter.Stage = &s
	}
	if logMinLevel != "" {
		l, err := commands.ParseLevelFlag(logMinLevel)
		if err != nil {
			return err
		}
		filter.MinLevel = &l
	}
	return commands.RunView(args[0], filter, cmd.OutOrStdout())
}
