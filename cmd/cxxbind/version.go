package main

import (
	"fmt"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is the CLI version, overridden at build time via -ldflags.
var Version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the cxxbind version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cxxbind %s\n", color.New(color.FgGreen, color.Bold).Sprint(Version))
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Fprintf(out, "go:     %s\n", info.GoVersion)
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					fmt.Fprintf(out, "commit: %s\n", s.Value)
				}
			}
		}
		return nil
	},
}
