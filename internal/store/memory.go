package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hirepath/shortlist/internal/skills"
)

// skillRecord is one (candidate, skill) ledger row.
type skillRecord struct {
	candidateID string
	skill       string
	confidence  float64
}

// MemoryStore is an in-memory Store for tests and local demos. It
// reproduces the MongoDB adapter's observable behavior: gate sorting,
// storage-order chunk listing, and projection of text-only queries.
type MemoryStore struct {
	mu       sync.RWMutex
	skills   []skillRecord
	chunks   []*Chunk
	profiles map[string]*Profile
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*Profile)}
}

// AddSkill records one skill for a candidate. The skill is stored in
// canonical form; re-adding the same (candidate, skill) pair replaces
// its confidence, mirroring the ingestion upsert.
func (m *MemoryStore) AddSkill(candidateID, skill string, confidence float64) {
	canonical := skills.Normalize(skill)
	if canonical == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.skills {
		if rec.candidateID == candidateID && rec.skill == canonical {
			m.skills[i].confidence = confidence
			return
		}
	}
	m.skills = append(m.skills, skillRecord{candidateID: candidateID, skill: canonical, confidence: confidence})
}

// AddChunk appends one chunk in storage order.
func (m *MemoryStore) AddChunk(chunk *Chunk) {
	c := *chunk
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, &c)
}

// AddProfile records one core profile.
func (m *MemoryStore) AddProfile(profile *Profile) {
	p := *profile
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.CandidateID] = &p
}

// GateCandidates matches the canonical skills against the ledger,
// groups per candidate, filters by threshold and sorts by matched
// count then average confidence. Candidate id ascending is the final
// tiebreak so results are deterministic.
func (m *MemoryStore) GateCandidates(_ context.Context, skillList []string, minMatch, limit int) ([]*GateEntry, error) {
	normalized := skills.NormalizeAll(skillList)
	if len(normalized) == 0 {
		return nil, nil
	}
	threshold := minMatch
	if threshold < 1 {
		threshold = 1
	}

	queried := make(map[string]struct{}, len(normalized))
	for _, s := range normalized {
		queried[s] = struct{}{}
	}

	m.mu.RLock()
	byCandidate := make(map[string]*GateEntry)
	var order []string
	sums := make(map[string]float64)
	for _, rec := range m.skills {
		if _, ok := queried[rec.skill]; !ok {
			continue
		}
		entry, ok := byCandidate[rec.candidateID]
		if !ok {
			entry = &GateEntry{CandidateID: rec.candidateID}
			byCandidate[rec.candidateID] = entry
			order = append(order, rec.candidateID)
		}
		entry.MatchedSkills = append(entry.MatchedSkills, rec.skill)
		entry.MatchedCount++
		sums[rec.candidateID] += rec.confidence
	}
	m.mu.RUnlock()

	entries := make([]*GateEntry, 0, len(order))
	for _, id := range order {
		entry := byCandidate[id]
		if entry.MatchedCount < threshold {
			continue
		}
		entry.AvgConfidence = sums[id] / float64(entry.MatchedCount)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].MatchedCount != entries[j].MatchedCount {
			return entries[i].MatchedCount > entries[j].MatchedCount
		}
		if entries[i].AvgConfidence != entries[j].AvgConfidence {
			return entries[i].AvgConfidence > entries[j].AvgConfidence
		}
		return entries[i].CandidateID < entries[j].CandidateID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ChunksByCandidates returns the chunks of the given candidates, text
// fields only, in storage order.
func (m *MemoryStore) ChunksByCandidates(_ context.Context, candidateIDs []string) ([]*Chunk, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	return m.selectChunks(idSet(candidateIDs), false), nil
}

// AllChunks returns every chunk, text fields only, in storage order.
func (m *MemoryStore) AllChunks(_ context.Context) ([]*Chunk, error) {
	return m.selectChunks(nil, false), nil
}

// EmbeddedChunksByCandidates returns the chunks of the given
// candidates with embeddings populated.
func (m *MemoryStore) EmbeddedChunksByCandidates(_ context.Context, candidateIDs []string) ([]*Chunk, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	return m.selectChunks(idSet(candidateIDs), true), nil
}

// AllEmbeddedChunks returns every chunk with embeddings populated.
func (m *MemoryStore) AllEmbeddedChunks(_ context.Context) ([]*Chunk, error) {
	return m.selectChunks(nil, true), nil
}

// CandidateChunks returns one candidate's chunks ordered by section
// type then section ordinal.
func (m *MemoryStore) CandidateChunks(_ context.Context, candidateID string) ([]*Chunk, error) {
	chunks := m.selectChunks(map[string]struct{}{candidateID: {}}, false)
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].SectionType != chunks[j].SectionType {
			return chunks[i].SectionType < chunks[j].SectionType
		}
		return chunks[i].SectionOrdinal < chunks[j].SectionOrdinal
	})
	return chunks, nil
}

// selectChunks copies matching chunks; the text-only projection strips
// embeddings the way the MongoDB projection does.
func (m *MemoryStore) selectChunks(ids map[string]struct{}, withEmbedding bool) []*Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Chunk
	for _, chunk := range m.chunks {
		if ids != nil {
			if _, ok := ids[chunk.CandidateID]; !ok {
				continue
			}
		}
		c := *chunk
		if !withEmbedding {
			c.Embedding = nil
		}
		out = append(out, &c)
	}
	return out
}

// ProfilesByIDs returns the profiles for the given candidates in
// request order, skipping unknown ids.
func (m *MemoryStore) ProfilesByIDs(_ context.Context, candidateIDs []string) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Profile
	for _, id := range candidateIDs {
		if p, ok := m.profiles[id]; ok {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close(_ context.Context) error { return nil }

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Verify interface implementation at compile time
var _ Store = (*MemoryStore)(nil)
