package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	serrors "github.com/hirepath/shortlist/internal/errors"
	"github.com/hirepath/shortlist/internal/logging"
	"github.com/hirepath/shortlist/internal/output"
	"github.com/hirepath/shortlist/internal/pipeline"
)

// searchOptions holds the search command flags.
type searchOptions struct {
	demo       bool
	jsonOutput bool
	verbose    bool
}

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run one shortlist query from the terminal",
		Long: `Run the full shortlist pipeline once and print the ranked
candidates.

The query reads like a hiring brief, for example:

  shortlistd search "senior Go engineer with Kubernetes, 5+ years"

Use --demo to search the built-in candidate set without MongoDB or
the model service. --json prints the full response document instead
of the summary view.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Search the built-in demo candidate set without external services")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the full response as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print pipeline progress to stderr")

	return cmd
}

// runSearch wires the pipeline, runs it once, and prints the response.
func runSearch(ctx context.Context, cmd *cobra.Command, opts searchOptions, query string) error {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Keep command output clean: warnings and errors only, as text.
	logger, cleanup, err := logging.Setup(logging.Config{Level: "warn", Format: "text"})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()

	comp, err := buildComponents(ctx, cfg, logger, opts.demo)
	if err != nil {
		return err
	}
	defer comp.shutdown(logger)

	// The run owns the events channel: drain it concurrently, close it
	// only after Run returns.
	events := make(chan pipeline.Event, pipeline.EventChannelCapacity)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			if opts.verbose && ev.Payload.Message != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), ev.Payload.Message)
			}
		}
	}()

	resp, err := comp.pipeline.Run(ctx, query, nil, events)
	close(events)
	<-drained
	if err != nil {
		// JSON mode keeps stdout machine-readable even on failure; the
		// returned error still reaches stderr and sets the exit code.
		if opts.jsonOutput {
			if data, jerr := serrors.FormatJSON(err); jerr == nil {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
		}
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	formatShortlist(output.New(cmd.OutOrStdout()), query, resp)
	return nil
}

// formatShortlist renders the ranked candidates in human-readable form.
func formatShortlist(out *output.Writer, query string, resp *pipeline.ShortlistResponse) {
	if len(resp.Results) == 0 {
		out.Warning("No candidates matched this query.")
		for _, tip := range resp.SuggestedRefinements {
			out.Status("💡", tip)
		}
		return
	}

	out.Statusf("🔍", "Found %d candidates for %q (match quality: %s)",
		resp.TotalCandidatesFound, query, resp.MatchQuality)
	out.Newline()

	for i, r := range resp.Results {
		out.Statusf("", "%d. %s (score: %.1f)", i+1, r.Name, r.FinalScore)
		if r.Headline != "" {
			out.Status("", "   "+r.Headline)
		}
		if detail := candidateDetail(r); detail != "" {
			out.Status("", "   "+detail)
		}
		if len(r.MatchedSkills) > 0 {
			out.Status("", "   matched: "+strings.Join(r.MatchedSkills, ", "))
		}
		for _, highlight := range r.Highlights {
			out.Status("", "   - "+highlight)
		}
		out.Newline()
	}

	for _, tip := range resp.SuggestedRefinements {
		out.Status("💡", tip)
	}
}

// candidateDetail joins years of experience and location into one line.
func candidateDetail(r *pipeline.ShortlistResult) string {
	var parts []string
	if r.TotalYOE > 0 {
		parts = append(parts, fmt.Sprintf("%.0f yrs experience", r.TotalYOE))
	}
	switch {
	case r.LocationCity != "" && r.LocationCountry != "":
		parts = append(parts, r.LocationCity+", "+r.LocationCountry)
	case r.LocationCity != "":
		parts = append(parts, r.LocationCity)
	case r.LocationCountry != "":
		parts = append(parts, r.LocationCountry)
	}
	return strings.Join(parts, " | ")
}
