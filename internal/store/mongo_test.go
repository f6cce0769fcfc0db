package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// TestMongoStore_Integration exercises the real adapter against a live
// MongoDB. It seeds a throwaway database and drops it afterwards.
func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("Skipping MongoDB integration test (set MONGO_TEST_URI to run)")
	}

	ctx := context.Background()
	dbName := fmt.Sprintf("shortlist_test_%d", time.Now().UnixNano())

	s, err := NewMongoStore(ctx, uri, dbName, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})

	_, err = s.db.Collection(CollectionSkills).InsertMany(ctx, []any{
		bson.D{{Key: "resumeId", Value: "C1"}, {Key: "skillCanonical", Value: "python"}, {Key: "confidence", Value: 0.9}},
		bson.D{{Key: "resumeId", Value: "C2"}, {Key: "skillCanonical", Value: "python"}, {Key: "confidence", Value: 0.8}},
		bson.D{{Key: "resumeId", Value: "C2"}, {Key: "skillCanonical", Value: "django"}, {Key: "confidence", Value: 0.7}},
	})
	require.NoError(t, err)

	_, err = s.db.Collection(CollectionChunks).InsertMany(ctx, []any{
		bson.D{
			{Key: "chunkId", Value: "ch1"}, {Key: "resumeId", Value: "C1"},
			{Key: "sectionType", Value: "experience"}, {Key: "sectionOrdinal", Value: 0},
			{Key: "chunkText", Value: "python developer at acme"},
			{Key: "embedding", Value: bson.A{1.0, 0.0}},
		},
		bson.D{
			{Key: "chunkId", Value: "ch2"}, {Key: "resumeId", Value: "C2"},
			{Key: "sectionType", Value: "skills"}, {Key: "sectionOrdinal", Value: 0},
			{Key: "chunkText", Value: "django, postgresql"},
			{Key: "embedding", Value: bson.A{0.0, 1.0}},
		},
	})
	require.NoError(t, err)

	_, err = s.db.Collection(CollectionProfiles).InsertMany(ctx, []any{
		bson.D{
			{Key: "resumeId", Value: "C1"},
			{Key: "summary", Value: "backend engineer"},
			{Key: "totalYOE", Value: 5.0},
			{Key: "locationCountry", Value: "DE"},
			{Key: "locationCity", Value: "Berlin"},
			{Key: "experience", Value: bson.A{
				bson.D{{Key: "title", Value: "Backend Engineer"}, {Key: "company", Value: "Acme"}},
			}},
			{Key: "personal_info", Value: bson.D{{Key: "name", Value: "Ada"}}},
		},
	})
	require.NoError(t, err)

	t.Run("gate candidates", func(t *testing.T) {
		entries, err := s.GateCandidates(ctx, []string{"python", "django"}, 1, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "C2", entries[0].CandidateID)
		assert.Equal(t, 2, entries[0].MatchedCount)
		assert.Equal(t, "C1", entries[1].CandidateID)
	})

	t.Run("text-only chunk query strips embeddings", func(t *testing.T) {
		chunks, err := s.ChunksByCandidates(ctx, []string{"C1", "C2"})
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		for _, c := range chunks {
			assert.Nil(t, c.Embedding)
		}
	})

	t.Run("embedded chunk query keeps embeddings", func(t *testing.T) {
		chunks, err := s.EmbeddedChunksByCandidates(ctx, []string{"C1"})
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, []float64{1, 0}, chunks[0].Embedding)
	})

	t.Run("profiles decode nested personal info", func(t *testing.T) {
		profiles, err := s.ProfilesByIDs(ctx, []string{"C1"})
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "Ada", profiles[0].Name)
		assert.Equal(t, "Backend Engineer at Acme", profiles[0].Headline())
		assert.InDelta(t, 5.0, profiles[0].TotalYOE, 1e-9)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
