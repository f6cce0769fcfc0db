package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hirepath/shortlist/internal/mission"
)

// Evidence pack bounds applied when the caller passes no limits.
const (
	defaultMaxChunksPerCandidate     = 5
	defaultMaxTotalCharsPerCandidate = 2500
)

// minSnippetRemainder is the smallest truncated snippet worth keeping
// when the character budget runs out mid-item.
const minSnippetRemainder = 50

// highlightCount is the number of highlight lines requested per
// candidate.
const highlightCount = 3

// fallbackHighlightChars caps each fallback highlight taken from raw
// snippet text.
const fallbackHighlightChars = 100

// highlightEvidenceChars caps the evidence text sent to the LLM per
// candidate.
const highlightEvidenceChars = 2000

const highlightPrompt = `You are an evidence analyst for a recruitment platform.
Given a candidate's resume chunks and the job requirements, generate 3 concise highlight sentences (each under 100 characters).

Each highlight should explain WHY this candidate matches a specific requirement.
Format: one highlight per line, no bullets or numbers.

Requirements (must-have): %s
Requirements (nice-to-have): %s

Candidate evidence:
%s

Return exactly 3 highlight lines:`

// BuildEvidencePack selects a bounded set of evidence items for one
// candidate from its lexical and vector hits. Lexical hits come first;
// a chunk surfacing in both lists is marked "both". Items are ordered
// by match strength (both, lexical, vector) then snippet length, and
// the selection stops at maxChunks items or maxTotalChars characters,
// truncating the final snippet when at least minSnippetRemainder
// characters of budget remain.
func BuildEvidencePack(candidateID string, sparse, dense []*RetrievalHit, maxChunks, maxTotalChars int) *EvidencePack {
	if maxChunks <= 0 {
		maxChunks = defaultMaxChunksPerCandidate
	}
	if maxTotalChars <= 0 {
		maxTotalChars = defaultMaxTotalCharsPerCandidate
	}

	items := make([]EvidenceItem, 0, len(sparse)+len(dense))
	index := make(map[string]int, len(sparse)+len(dense))
	for _, h := range sparse {
		if _, ok := index[h.ChunkID]; ok {
			continue
		}
		index[h.ChunkID] = len(items)
		items = append(items, EvidenceItem{
			ChunkID:     h.ChunkID,
			Section:     h.SectionType,
			TextSnippet: h.ChunkText,
			WhyMatched:  SourceLexical,
		})
	}
	for _, h := range dense {
		if i, ok := index[h.ChunkID]; ok {
			items[i].WhyMatched = MatchedBoth
			continue
		}
		index[h.ChunkID] = len(items)
		items = append(items, EvidenceItem{
			ChunkID:     h.ChunkID,
			Section:     h.SectionType,
			TextSnippet: h.ChunkText,
			WhyMatched:  SourceVector,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		oi, oj := matchOrder(items[i].WhyMatched), matchOrder(items[j].WhyMatched)
		if oi != oj {
			return oi < oj
		}
		return len(items[i].TextSnippet) > len(items[j].TextSnippet)
	})

	bounded := make([]EvidenceItem, 0, maxChunks)
	total := 0
	for _, item := range items {
		if len(bounded) >= maxChunks {
			break
		}
		n := len(item.TextSnippet)
		if total+n > maxTotalChars {
			remaining := maxTotalChars - total
			if remaining > minSnippetRemainder {
				item.TextSnippet = item.TextSnippet[:remaining] + "..."
				bounded = append(bounded, item)
			}
			break
		}
		total += n
		bounded = append(bounded, item)
	}

	return &EvidencePack{
		CandidateID: candidateID,
		Evidence:    bounded,
		Highlights:  []string{},
	}
}

// matchOrder ranks why-matched tags for evidence ordering, strongest
// first.
func matchOrder(why string) int {
	switch why {
	case MatchedBoth:
		return 0
	case SourceLexical:
		return 1
	default:
		return 2
	}
}

// FallbackHighlights derives highlights directly from a pack's first
// snippets, for use when no LLM is available or its call fails.
func FallbackHighlights(pack *EvidencePack) []string {
	highlights := make([]string, 0, highlightCount)
	for _, item := range pack.Evidence {
		if len(highlights) >= highlightCount {
			break
		}
		highlights = append(highlights, truncate(item.TextSnippet, fallbackHighlightChars))
	}
	return highlights
}

// GenerateHighlights asks the LLM for highlight sentences explaining
// why the pack's candidate matches the mission requirements. It
// returns nil with no error when the pack holds no evidence text to
// analyze; the caller keeps its fallback highlights in that case.
func GenerateHighlights(ctx context.Context, llm mission.ChatCompleter, spec mission.MissionSpec, pack *EvidencePack) ([]string, error) {
	lines := make([]string, 0, len(pack.Evidence))
	for _, item := range pack.Evidence {
		lines = append(lines, fmt.Sprintf("[%s] %s", item.Section, item.TextSnippet))
	}
	evidenceText := strings.Join(lines, "\n")
	if evidenceText == "" {
		return nil, nil
	}

	mustHave := "general match"
	if len(spec.MustHave) > 0 {
		mustHave = strings.Join(spec.MustHave, ", ")
	}
	niceToHave := "none specified"
	if len(spec.NiceToHave) > 0 {
		niceToHave = strings.Join(spec.NiceToHave, ", ")
	}

	prompt := fmt.Sprintf(highlightPrompt, mustHave, niceToHave, truncate(evidenceText, highlightEvidenceChars))
	reply, err := llm.Complete(ctx, prompt, "")
	if err != nil {
		return nil, err
	}
	return parseHighlights(reply), nil
}

// parseHighlights extracts up to highlightCount non-trivial lines from
// an LLM reply.
func parseHighlights(reply string) []string {
	highlights := make([]string, 0, highlightCount)
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 5 {
			continue
		}
		highlights = append(highlights, line)
		if len(highlights) >= highlightCount {
			break
		}
	}
	return highlights
}
