package store

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	serrors "github.com/hirepath/shortlist/internal/errors"
	"github.com/hirepath/shortlist/internal/skills"
)

// connectTimeout bounds the initial reachability check.
const connectTimeout = 5 * time.Second

// MongoStore reads the resume collections from MongoDB. A single
// MongoStore wraps one connection pool and is safe for concurrent use.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies reachability with a
// bounded ping before returning.
func NewMongoStore(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreUnavailable, "mongodb client setup failed", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, serrors.New(serrors.ErrCodeStoreUnavailable, "mongodb unreachable", err).
			WithSuggestion("check MONGO_URI and that the server is running")
	}

	logger.Info("connected to mongodb", "database", database)
	return &MongoStore{
		client: client,
		db:     client.Database(database),
		logger: logger,
	}, nil
}

// GateCandidates aggregates the skills ledger: match the canonical
// skills, group per resume, keep candidates at or above the match
// threshold, sort by matched count then average confidence.
func (s *MongoStore) GateCandidates(ctx context.Context, skillList []string, minMatch, limit int) ([]*GateEntry, error) {
	normalized := skills.NormalizeAll(skillList)
	if len(normalized) == 0 {
		return nil, nil
	}
	threshold := minMatch
	if threshold < 1 {
		threshold = 1
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "skillCanonical", Value: bson.D{{Key: "$in", Value: normalized}}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$resumeId"},
			{Key: "matchedSkills", Value: bson.D{{Key: "$push", Value: "$skillCanonical"}}},
			{Key: "matchedCount", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avgConfidence", Value: bson.D{{Key: "$avg", Value: "$confidence"}}},
		}}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "matchedCount", Value: bson.D{{Key: "$gte", Value: threshold}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "matchedCount", Value: -1},
			{Key: "avgConfidence", Value: -1},
		}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := s.db.Collection(CollectionSkills).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreQueryFailed, "skills aggregation failed", err)
	}
	defer cursor.Close(ctx)

	var entries []*GateEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreQueryFailed, "skills aggregation decode failed", err)
	}
	return entries, nil
}

// ChunksByCandidates returns the chunks of the given candidates, text
// fields only, in storage order.
func (s *MongoStore) ChunksByCandidates(ctx context.Context, candidateIDs []string) ([]*Chunk, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	filter := bson.D{{Key: "resumeId", Value: bson.D{{Key: "$in", Value: candidateIDs}}}}
	return s.findChunks(ctx, filter, false, nil)
}

// AllChunks returns every chunk, text fields only, in storage order.
func (s *MongoStore) AllChunks(ctx context.Context) ([]*Chunk, error) {
	return s.findChunks(ctx, bson.D{}, false, nil)
}

// EmbeddedChunksByCandidates returns the chunks of the given
// candidates with embeddings populated.
func (s *MongoStore) EmbeddedChunksByCandidates(ctx context.Context, candidateIDs []string) ([]*Chunk, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	filter := bson.D{{Key: "resumeId", Value: bson.D{{Key: "$in", Value: candidateIDs}}}}
	return s.findChunks(ctx, filter, true, nil)
}

// AllEmbeddedChunks returns every chunk with embeddings populated.
func (s *MongoStore) AllEmbeddedChunks(ctx context.Context) ([]*Chunk, error) {
	return s.findChunks(ctx, bson.D{}, true, nil)
}

// CandidateChunks returns one candidate's chunks ordered by section
// type then section ordinal.
func (s *MongoStore) CandidateChunks(ctx context.Context, candidateID string) ([]*Chunk, error) {
	filter := bson.D{{Key: "resumeId", Value: candidateID}}
	sort := bson.D{{Key: "sectionType", Value: 1}, {Key: "sectionOrdinal", Value: 1}}
	return s.findChunks(ctx, filter, false, sort)
}

func (s *MongoStore) findChunks(ctx context.Context, filter bson.D, withEmbedding bool, sort bson.D) ([]*Chunk, error) {
	projection := bson.D{
		{Key: "chunkId", Value: 1},
		{Key: "resumeId", Value: 1},
		{Key: "sectionType", Value: 1},
		{Key: "sectionOrdinal", Value: 1},
		{Key: "chunkText", Value: 1},
	}
	if withEmbedding {
		projection = append(projection, bson.E{Key: "embedding", Value: 1})
	}

	opts := options.Find().SetProjection(projection)
	if sort != nil {
		opts.SetSort(sort)
	}

	cursor, err := s.db.Collection(CollectionChunks).Find(ctx, filter, opts)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreQueryFailed, "chunk query failed", err)
	}
	defer cursor.Close(ctx)

	var chunks []*Chunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreQueryFailed, "chunk decode failed", err)
	}
	return chunks, nil
}

// profileDoc mirrors the resumes_core document shape, including the
// nested personal_info block the ingestion pipeline writes.
type profileDoc struct {
	ResumeID        string            `bson:"resumeId"`
	Summary         string            `bson:"summary"`
	TotalYOE        float64           `bson:"totalYOE"`
	LocationCountry string            `bson:"locationCountry"`
	LocationCity    string            `bson:"locationCity"`
	Experience      []ExperienceEntry `bson:"experience"`
	PersonalInfo    struct {
		Name string `bson:"name"`
	} `bson:"personal_info"`
}

// ProfilesByIDs returns the core profiles for the given candidates.
func (s *MongoStore) ProfilesByIDs(ctx context.Context, candidateIDs []string) ([]*Profile, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	filter := bson.D{{Key: "resumeId", Value: bson.D{{Key: "$in", Value: candidateIDs}}}}
	opts := options.Find().SetProjection(bson.D{
		{Key: "resumeId", Value: 1},
		{Key: "summary", Value: 1},
		{Key: "totalYOE", Value: 1},
		{Key: "locationCountry", Value: 1},
		{Key: "locationCity", Value: 1},
		{Key: "experience.title", Value: 1},
		{Key: "experience.company", Value: 1},
		{Key: "personal_info.name", Value: 1},
	})

	cursor, err := s.db.Collection(CollectionProfiles).Find(ctx, filter, opts)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreQueryFailed, "profile query failed", err)
	}
	defer cursor.Close(ctx)

	var docs []profileDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, serrors.New(serrors.ErrCodeStoreQueryFailed, "profile decode failed", err)
	}

	profiles := make([]*Profile, 0, len(docs))
	for _, d := range docs {
		profiles = append(profiles, &Profile{
			CandidateID:     d.ResumeID,
			Name:            d.PersonalInfo.Name,
			Summary:         d.Summary,
			TotalYOE:        d.TotalYOE,
			LocationCountry: d.LocationCountry,
			LocationCity:    d.LocationCity,
			Experience:      d.Experience,
		})
	}
	return profiles, nil
}

// Ping verifies the MongoDB deployment is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return serrors.New(serrors.ErrCodeStoreUnavailable, "mongodb ping failed", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Verify interface implementation at compile time
var _ Store = (*MongoStore)(nil)
