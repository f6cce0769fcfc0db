// Package cmd provides the CLI commands for shortlistd.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirepath/shortlist/internal/config"
	"github.com/hirepath/shortlist/pkg/version"
)

// configPath holds the persistent --config flag value.
var configPath string

// NewRootCmd creates the root command for the shortlistd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortlistd",
		Short: "Resume shortlist service with hybrid retrieval and live progress",
		Long: `Shortlistd turns a free-text hiring query into a ranked candidate
shortlist. A six-stage pipeline parses the query into a mission spec,
runs lexical and vector retrieval in parallel over the resume store,
fuses both lists with reciprocal rank fusion, builds evidence packs,
scores them with a cross-encoder blend, and assembles the response.

Run 'shortlistd serve' to expose the pipeline over HTTP with
Server-Sent Events progress, or 'shortlistd search' for a one-shot
run from the terminal.`,
		Version: version.Version,
		// main formats errors with serrors.FormatForCLI; cobra staying
		// quiet avoids printing them twice.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("shortlistd version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a shortlist.yaml config file (default: search the working directory)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCandidateCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig resolves configuration for a command run: the explicit
// --config file when set, otherwise defaults merged with any
// shortlist.yaml in the working directory. Environment overrides apply
// either way.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
