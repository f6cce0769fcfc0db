package pipeline

import (
	"github.com/google/uuid"

	"github.com/hirepath/shortlist/internal/mission"
	"github.com/hirepath/shortlist/internal/search"
)

// Stage names, used in stage_complete events, error events and the
// stage_timings map.
const (
	StageJDUnderstanding  = "jd_understanding"
	StageRetrieval        = "retrieval"
	StageFusion           = "fusion"
	StageEvidenceBuilding = "evidence_building"
	StageRanking          = "ranking"
	StageAssembly         = "assembly"
)

// Agent display names shown in the event stream.
const (
	AgentJDUnderstanding = "JD Understanding"
	AgentRetriever       = "Retriever"
	AgentFusion          = "Fusion"
	AgentEvidenceBuilder = "Evidence Builder"
	AgentRanker          = "Ranker"
	AgentAssembly        = "Assembly"
)

// Tool identifiers used in tool_call and tool_result events.
const (
	ToolOpenAIParse        = "openai_parse"
	ToolSearchSkillsDB     = "search_skills_db"
	ToolLexicalSearch      = "lexical_search_chunks"
	ToolVectorSearch       = "vector_search_chunks"
	ToolGenerateHighlights = "generate_highlights"
	ToolCrossEncoderRerank = "cross_encoder_rerank"
	ToolFetchProfiles      = "fetch_candidate_profiles"
)

// Match quality labels for the assembled response.
const (
	MatchStrong = "strong"
	MatchWeak   = "weak"
	MatchNone   = "none"
)

// ScoreBreakdown explains how a candidate's final score was composed.
// Nil ranks mean the candidate was absent from that retrieval source.
type ScoreBreakdown struct {
	RRFScore    float64 `json:"rrf_score"`
	RerankScore float64 `json:"rerank_score"`
	DenseRank   *int    `json:"dense_rank,omitempty"`
	SparseRank  *int    `json:"sparse_rank,omitempty"`
}

// ShortlistResult is one shortlisted candidate with profile enrichment
// and scoring evidence.
type ShortlistResult struct {
	CandidateID     string               `json:"candidate_id"`
	Name            string               `json:"name"`
	FinalScore      float64              `json:"final_score"`
	ScoreBreakdown  ScoreBreakdown       `json:"score_breakdown"`
	EvidencePack    *search.EvidencePack `json:"evidence_pack"`
	Highlights      []string             `json:"highlights"`
	Headline        string               `json:"headline"`
	TotalYOE        float64              `json:"total_yoe"`
	LocationCountry string               `json:"location_country"`
	LocationCity    string               `json:"location_city"`
	Summary         string               `json:"summary"`
	MatchedSkills   []string             `json:"matched_skills"`
}

// ShortlistResponse is the terminal payload of a pipeline run, carried
// by the result event and returned by the sync endpoint.
type ShortlistResponse struct {
	RequestID            string              `json:"request_id"`
	MissionSpec          mission.MissionSpec `json:"mission_spec"`
	Results              []*ShortlistResult  `json:"results"`
	SuggestedRefinements []string            `json:"suggested_refinements"`
	StageTimings         map[string]float64  `json:"stage_timings"`
	TotalCandidatesFound int                 `json:"total_candidates_found"`
	MatchQuality         string              `json:"match_quality"`
}

// runState is the mutable state of one pipeline run. Each stage writes
// its outputs before the next stage reads them; nothing here is shared
// across requests. Timing values are seconds.
type runState struct {
	queryText string
	filters   map[string]any
	requestID string

	mission       mission.MissionSpec
	sparseResults []*search.RetrievalHit
	denseResults  []*search.RetrievalHit
	fused         []*search.FusedCandidate
	packs         map[string]*search.EvidencePack
	rerankScores  map[string]float64
	ranked        []*search.RankedCandidate
	response      *ShortlistResponse

	stageTimings map[string]float64
}

func newRunState(queryText string, filters map[string]any) *runState {
	if filters == nil {
		filters = map[string]any{}
	}
	return &runState{
		queryText:    queryText,
		filters:      filters,
		requestID:    uuid.NewString(),
		packs:        make(map[string]*search.EvidencePack),
		rerankScores: make(map[string]float64),
		stageTimings: make(map[string]float64),
	}
}
