package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirepath/shortlist/internal/embed"
)

func TestSeedDemoStore_PopulatesProfilesSkillsAndChunks(t *testing.T) {
	// Given: the static embedder
	embedder := embed.NewStaticEmbedder()

	// When: seeding the demo store
	st, err := seedDemoStore(context.Background(), embedder)
	require.NoError(t, err)

	// Then: profiles resolve by candidate id
	profiles, err := st.ProfilesByIDs(context.Background(), []string{"cand-demo-1"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Priya Nair", profiles[0].Name)
	assert.Equal(t, "Senior Backend Engineer at Finch Labs", profiles[0].Headline())

	// Then: the skills gate finds the Go candidates
	entries, err := st.GateCandidates(context.Background(), []string{"go"}, 1, 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.CandidateID)
	}
	assert.Contains(t, ids, "cand-demo-1")
	assert.Contains(t, ids, "cand-demo-2")
	assert.NotContains(t, ids, "cand-demo-4")

	// Then: chunks carry embeddings in the static vector space
	chunks, err := st.EmbeddedChunksByCandidates(context.Background(), []string{"cand-demo-5"})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.Len(t, chunk.Embedding, embed.StaticDimensions)
	}
}

func TestDemoCandidates_HaveCompleteSeedData(t *testing.T) {
	for _, cand := range demoCandidates() {
		assert.NotEmpty(t, cand.id)
		assert.NotEmpty(t, cand.profile.Name)
		assert.NotEmpty(t, cand.profile.Experience)
		assert.NotEmpty(t, cand.skills)
		assert.NotEmpty(t, cand.chunks)
	}
}
