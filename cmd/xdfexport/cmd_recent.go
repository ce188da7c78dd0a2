package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xdfexport/xdfexport-go/pkg/config"
)

var errNoHistory = errors.New("no location for recent files (set history_file in the config)")

// recentCmd manages the recent-files list
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Recent definition and firmware pairs",
}

var recentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently exported pairs, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runRecentList,
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recent pairs",
	Args:  cobra.NoArgs,
	RunE:  runRecentClear,
}

var recentDirCmd = &cobra.Command{
	Use:   "dir [folder]",
	Short: "Show or set the default folder for definitions and images",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRecentDir,
}

// configCmd shows the effective settings
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func runRecentList(cmd *cobra.Command, args []string) error {
	s := historyStore()
	if s == nil {
		return errNoHistory
	}
	entries, err := s.Recent()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recent files")
		return nil
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%2d. %s\n    %s\n", i+1, e.Definition, e.Firmware)
	}
	return nil
}

func runRecentClear(cmd *cobra.Command, args []string) error {
	s := historyStore()
	if s == nil {
		return errNoHistory
	}
	if err := s.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Recent files cleared")
	return nil
}

func runRecentDir(cmd *cobra.Command, args []string) error {
	s := historyStore()
	if s == nil {
		return errNoHistory
	}

	w := cmd.OutOrStdout()
	if len(args) == 0 {
		dir, err := s.DefaultDir()
		if err != nil {
			return err
		}
		if dir == "" {
			fmt.Fprintln(w, "No default folder set")
			return nil
		}
		fmt.Fprintln(w, dir)
		return nil
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := s.SetDefaultDir(dir); err != nil {
		return err
	}
	fmt.Fprintf(w, "Default folder: %s\n", dir)
	return nil
}
