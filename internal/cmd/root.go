package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for slop
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slop",
		Short: "Rewrite matching code passages with a language model, one commit at a time",
		Long: `Slop repeatedly finds the first passage in a source tree that matches a
regular expression, asks a language model for a replacement, writes it,
runs a check command and commits the file. It stops when nothing matches.

Jobs are described in YAML files. Tool settings are loaded from
.slop/config.yaml if present; CLI flags override them.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text;
		// main prints the error itself
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
