package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hirepath/shortlist/internal/logging"
	"github.com/hirepath/shortlist/internal/output"
	"github.com/hirepath/shortlist/internal/store"
)

// candidateOptions holds the candidate command flags.
type candidateOptions struct {
	demo bool
}

// newCandidateCmd creates the candidate inspection command.
func newCandidateCmd() *cobra.Command {
	var opts candidateOptions

	cmd := &cobra.Command{
		Use:   "candidate <candidate-id>",
		Short: "Show the stored resume for one candidate",
		Long: `Show the stored profile and resume sections for one candidate, as
the retrieval stages see them. Useful for checking why a candidate did
or did not surface for a query.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCandidate(cmd.Context(), cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Read from the built-in demo candidate set")

	return cmd
}

// runCandidate loads one candidate's profile and sections and prints
// them.
func runCandidate(ctx context.Context, cmd *cobra.Command, opts candidateOptions, candidateID string) error {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

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

	profiles, err := comp.store.ProfilesByIDs(ctx, []string{candidateID})
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if len(profiles) == 0 {
		return fmt.Errorf("candidate %s not found", candidateID)
	}

	chunks, err := comp.store.CandidateChunks(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("load resume sections: %w", err)
	}

	formatCandidate(output.New(cmd.OutOrStdout()), profiles[0], chunks)
	return nil
}

// formatCandidate renders one candidate's profile and stored sections.
func formatCandidate(out *output.Writer, profile *store.Profile, chunks []*store.Chunk) {
	out.Statusf("👤", "%s (%s)", profile.Name, profile.Headline())
	if profile.Summary != "" {
		out.Status("", profile.Summary)
	}
	if profile.TotalYOE > 0 {
		out.Statusf("", "%.0f yrs experience", profile.TotalYOE)
	}
	switch {
	case profile.LocationCity != "" && profile.LocationCountry != "":
		out.Status("", profile.LocationCity+", "+profile.LocationCountry)
	case profile.LocationCity != "":
		out.Status("", profile.LocationCity)
	case profile.LocationCountry != "":
		out.Status("", profile.LocationCountry)
	}
	for _, entry := range profile.Experience {
		out.Statusf("", "- %s, %s", entry.Title, entry.Company)
	}

	if len(chunks) == 0 {
		out.Newline()
		out.Warning("No resume sections stored for this candidate.")
		return
	}

	out.Newline()
	out.Statusf("📄", "%d stored sections:", len(chunks))
	for _, chunk := range chunks {
		out.Statusf("", "[%s #%d] %s", chunk.SectionType, chunk.SectionOrdinal, chunk.Text)
	}
}
