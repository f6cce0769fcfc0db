// Package store provides read access to the ingested resume
// collections: the skills ledger, the chunk corpus with embeddings,
// and the core profiles. The MongoDB adapter is the production
// backend; MemoryStore backs tests and local demos.
//
// The collections are produced by the ingestion pipeline and consumed
// here read-only.
package store

import (
	"context"
	"fmt"
)

// Collection names as written by the ingestion pipeline.
const (
	CollectionSkills   = "resume_skills"
	CollectionChunks   = "resume_chunks"
	CollectionProfiles = "resumes_core"
)

// Chunk is one retrievable slice of a resume.
type Chunk struct {
	ChunkID        string `bson:"chunkId"`
	CandidateID    string `bson:"resumeId"`
	SectionType    string `bson:"sectionType"`
	SectionOrdinal int    `bson:"sectionOrdinal"`
	Text           string `bson:"chunkText"`
	// Embedding is only populated by the embedded-chunk queries.
	Embedding []float64 `bson:"embedding"`
}

// GateEntry is one skills-index match: a candidate together with the
// queried skills they hold.
type GateEntry struct {
	CandidateID   string   `bson:"_id"`
	MatchedSkills []string `bson:"matchedSkills"`
	MatchedCount  int      `bson:"matchedCount"`
	AvgConfidence float64  `bson:"avgConfidence"`
}

// ExperienceEntry is one position from a candidate's work history,
// most recent first.
type ExperienceEntry struct {
	Title   string `bson:"title"`
	Company string `bson:"company"`
}

// Profile holds the core resume fields the response surfaces.
type Profile struct {
	CandidateID     string
	Name            string
	Summary         string
	TotalYOE        float64
	LocationCountry string
	LocationCity    string
	Experience      []ExperienceEntry
}

// Headline derives a display headline from the most recent experience
// entry: "{title} at {company}", else whichever of the two is present,
// else a placeholder.
func (p *Profile) Headline() string {
	if len(p.Experience) == 0 {
		return "No title available"
	}
	latest := p.Experience[0]
	switch {
	case latest.Title != "" && latest.Company != "":
		return fmt.Sprintf("%s at %s", latest.Title, latest.Company)
	case latest.Title != "":
		return latest.Title
	case latest.Company != "":
		return latest.Company
	default:
		return "No title available"
	}
}

// SkillIndex gates candidates by their extracted skills.
type SkillIndex interface {
	// GateCandidates returns candidates holding at least minMatch of
	// the given skills (canonical form), sorted by matched count
	// descending then average confidence descending, capped at limit.
	// minMatch below 1 is treated as 1; passing len(skills) requires
	// every skill.
	GateCandidates(ctx context.Context, skills []string, minMatch, limit int) ([]*GateEntry, error)
}

// ChunkStore reads the chunk corpus.
type ChunkStore interface {
	// ChunksByCandidates returns the chunks of the given candidates,
	// text fields only, in storage order.
	ChunksByCandidates(ctx context.Context, candidateIDs []string) ([]*Chunk, error)

	// AllChunks returns every chunk, text fields only, in storage order.
	AllChunks(ctx context.Context) ([]*Chunk, error)

	// EmbeddedChunksByCandidates returns the chunks of the given
	// candidates with embeddings populated.
	EmbeddedChunksByCandidates(ctx context.Context, candidateIDs []string) ([]*Chunk, error)

	// AllEmbeddedChunks returns every chunk with embeddings populated.
	AllEmbeddedChunks(ctx context.Context) ([]*Chunk, error)

	// CandidateChunks returns one candidate's chunks ordered by
	// section type then section ordinal, text fields only.
	CandidateChunks(ctx context.Context, candidateID string) ([]*Chunk, error)
}

// ProfileStore reads core profiles.
type ProfileStore interface {
	// ProfilesByIDs returns the profiles for the given candidate ids.
	// Missing ids are silently absent from the result.
	ProfilesByIDs(ctx context.Context, candidateIDs []string) ([]*Profile, error)
}

// Store is the full persistence surface the pipeline depends on.
type Store interface {
	SkillIndex
	ChunkStore
	ProfileStore

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close(ctx context.Context) error
}
