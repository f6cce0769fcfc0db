package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirepath/shortlist/internal/mission"
)

// fakeCompleter records the last chat call and returns a canned reply.
type fakeCompleter struct {
	reply      string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// ============================================================================
// Evidence Pack Selection
// ============================================================================

func TestBuildEvidencePack_MarksChunksInBothSources(t *testing.T) {
	// Given: the same chunk surfacing in both lists
	sparse := []*RetrievalHit{{ChunkID: "ch1", CandidateID: "cand-a", SectionType: "experience", ChunkText: "Go services"}}
	dense := []*RetrievalHit{{ChunkID: "ch1", CandidateID: "cand-a", SectionType: "experience", ChunkText: "Go services"}}

	// When
	pack := BuildEvidencePack("cand-a", sparse, dense, 5, 2500)

	// Then: one item, marked as matched by both
	require.Len(t, pack.Evidence, 1)
	assert.Equal(t, MatchedBoth, pack.Evidence[0].WhyMatched)
	assert.Equal(t, "cand-a", pack.CandidateID)
	assert.NotNil(t, pack.Highlights)
}

func TestBuildEvidencePack_OrdersByMatchStrengthThenLength(t *testing.T) {
	// Given: a short both-matched chunk, a lexical chunk and a longer
	// vector chunk
	sparse := []*RetrievalHit{
		{ChunkID: "ch1", ChunkText: strings.Repeat("a", 10)},
		{ChunkID: "ch2", ChunkText: strings.Repeat("b", 50)},
	}
	dense := []*RetrievalHit{
		{ChunkID: "ch1", ChunkText: strings.Repeat("a", 10)},
		{ChunkID: "ch3", ChunkText: strings.Repeat("c", 80)},
	}

	// When
	pack := BuildEvidencePack("cand-a", sparse, dense, 5, 2500)

	// Then: both beats lexical beats vector regardless of length
	require.Len(t, pack.Evidence, 3)
	assert.Equal(t, "ch1", pack.Evidence[0].ChunkID)
	assert.Equal(t, MatchedBoth, pack.Evidence[0].WhyMatched)
	assert.Equal(t, "ch2", pack.Evidence[1].ChunkID)
	assert.Equal(t, SourceLexical, pack.Evidence[1].WhyMatched)
	assert.Equal(t, "ch3", pack.Evidence[2].ChunkID)
	assert.Equal(t, SourceVector, pack.Evidence[2].WhyMatched)
}

func TestBuildEvidencePack_LongerSnippetsFirstWithinClass(t *testing.T) {
	sparse := []*RetrievalHit{
		{ChunkID: "short", ChunkText: strings.Repeat("a", 20)},
		{ChunkID: "long", ChunkText: strings.Repeat("b", 90)},
	}

	pack := BuildEvidencePack("cand-a", sparse, nil, 5, 2500)

	require.Len(t, pack.Evidence, 2)
	assert.Equal(t, "long", pack.Evidence[0].ChunkID)
	assert.Equal(t, "short", pack.Evidence[1].ChunkID)
}

func TestBuildEvidencePack_CapsChunkCount(t *testing.T) {
	var sparse []*RetrievalHit
	for _, id := range []string{"ch1", "ch2", "ch3", "ch4"} {
		sparse = append(sparse, &RetrievalHit{ChunkID: id, ChunkText: "some snippet text"})
	}

	pack := BuildEvidencePack("cand-a", sparse, nil, 2, 2500)

	assert.Len(t, pack.Evidence, 2)
}

func TestBuildEvidencePack_TruncatesFinalSnippetWithinBudget(t *testing.T) {
	// Given: a second snippet that overflows the budget with more than
	// the minimum remainder left
	sparse := []*RetrievalHit{
		{ChunkID: "ch1", ChunkText: strings.Repeat("a", 120)},
		{ChunkID: "ch2", ChunkText: strings.Repeat("b", 100)},
	}

	// When: 60 characters of budget remain for the second item
	pack := BuildEvidencePack("cand-a", sparse, nil, 5, 180)

	// Then: the snippet is cut to the remainder and marked truncated
	require.Len(t, pack.Evidence, 2)
	assert.Equal(t, strings.Repeat("b", 60)+"...", pack.Evidence[1].TextSnippet)
}

func TestBuildEvidencePack_DropsTinyRemainder(t *testing.T) {
	sparse := []*RetrievalHit{
		{ChunkID: "ch1", ChunkText: strings.Repeat("a", 100)},
		{ChunkID: "ch2", ChunkText: strings.Repeat("b", 60)},
	}

	// 20 characters of budget remain, below the minimum remainder
	pack := BuildEvidencePack("cand-a", sparse, nil, 5, 120)

	require.Len(t, pack.Evidence, 1)
	assert.Equal(t, "ch1", pack.Evidence[0].ChunkID)
}

// ============================================================================
// Highlights
// ============================================================================

func TestFallbackHighlights_UsesFirstSnippets(t *testing.T) {
	pack := &EvidencePack{
		CandidateID: "cand-a",
		Evidence: []EvidenceItem{
			{TextSnippet: strings.Repeat("a", 150)},
			{TextSnippet: "Led the data platform team"},
			{TextSnippet: "Shipped the billing rewrite"},
			{TextSnippet: "Never reached"},
		},
	}

	highlights := FallbackHighlights(pack)

	require.Len(t, highlights, 3)
	assert.Equal(t, strings.Repeat("a", 100), highlights[0])
	assert.Equal(t, "Led the data platform team", highlights[1])
}

func TestFallbackHighlights_EmptyPack(t *testing.T) {
	highlights := FallbackHighlights(&EvidencePack{CandidateID: "cand-a"})

	assert.NotNil(t, highlights)
	assert.Empty(t, highlights)
}

func TestGenerateHighlights_BuildsPromptAndParsesReply(t *testing.T) {
	// Given: a pack with evidence and an LLM returning noisy lines
	completer := &fakeCompleter{
		reply: "ok\nGo expertise with 5 years of services\nLed Python migration team\nMentored junior engineers\nThis line is beyond the cap",
	}
	spec := mission.MissionSpec{MustHave: []string{"go", "python"}}
	pack := &EvidencePack{
		CandidateID: "cand-a",
		Evidence: []EvidenceItem{
			{Section: "experience", TextSnippet: "Built Go services"},
			{Section: "skills", TextSnippet: "Python, Go, SQL"},
		},
	}

	// When
	highlights, err := GenerateHighlights(context.Background(), completer, spec, pack)

	// Then: the prompt carries requirements and evidence, short lines
	// are filtered and the result is capped at three
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Go expertise with 5 years of services",
		"Led Python migration team",
		"Mentored junior engineers",
	}, highlights)
	assert.Equal(t, 1, completer.calls)
	assert.Empty(t, completer.lastUser)
	assert.Contains(t, completer.lastSystem, "You are an evidence analyst")
	assert.Contains(t, completer.lastSystem, "Requirements (must-have): go, python")
	assert.Contains(t, completer.lastSystem, "Requirements (nice-to-have): none specified")
	assert.Contains(t, completer.lastSystem, "[experience] Built Go services")
	assert.Contains(t, completer.lastSystem, "[skills] Python, Go, SQL")
}

func TestGenerateHighlights_DefaultsWhenNoRequirements(t *testing.T) {
	completer := &fakeCompleter{reply: "Strong generalist background"}
	pack := &EvidencePack{
		CandidateID: "cand-a",
		Evidence:    []EvidenceItem{{Section: "summary", TextSnippet: "Generalist"}},
	}

	_, err := GenerateHighlights(context.Background(), completer, mission.EmptySpec(""), pack)

	require.NoError(t, err)
	assert.Contains(t, completer.lastSystem, "Requirements (must-have): general match")
	assert.Contains(t, completer.lastSystem, "Requirements (nice-to-have): none specified")
}

func TestGenerateHighlights_EmptyEvidenceSkipsLLM(t *testing.T) {
	completer := &fakeCompleter{reply: "unused"}

	highlights, err := GenerateHighlights(context.Background(), completer, mission.EmptySpec(""), &EvidencePack{CandidateID: "cand-a"})

	require.NoError(t, err)
	assert.Nil(t, highlights)
	assert.Equal(t, 0, completer.calls)
}

func TestGenerateHighlights_TruncatesEvidenceText(t *testing.T) {
	completer := &fakeCompleter{reply: "Looks like a strong match overall"}
	pack := &EvidencePack{
		CandidateID: "cand-a",
		Evidence:    []EvidenceItem{{Section: "experience", TextSnippet: strings.Repeat("x", 3000)}},
	}

	_, err := GenerateHighlights(context.Background(), completer, mission.EmptySpec(""), pack)

	require.NoError(t, err)
	assert.NotContains(t, completer.lastSystem, strings.Repeat("x", 2100))
}

func TestGenerateHighlights_ErrorPropagates(t *testing.T) {
	llmErr := errors.New("completion failed")
	completer := &fakeCompleter{err: llmErr}
	pack := &EvidencePack{
		CandidateID: "cand-a",
		Evidence:    []EvidenceItem{{Section: "skills", TextSnippet: "Go, Python"}},
	}

	highlights, err := GenerateHighlights(context.Background(), completer, mission.EmptySpec(""), pack)

	require.Error(t, err)
	assert.ErrorIs(t, err, llmErr)
	assert.Nil(t, highlights)
}
