package pipeline

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/hirepath/shortlist/internal/search"
	"github.com/hirepath/shortlist/internal/store"
)

// weakMatchLimit caps the unfiltered salvage list returned when every
// candidate fails the hard filters.
const weakMatchLimit = 10

// domainKeywords maps a core domain to headline keywords that count
// as working in that domain. Headlines rarely repeat the domain name
// itself ("SEO Specialist", not "Digital Marketing Specialist"), so
// the literal substring check alone rejects too much.
var domainKeywords = map[string][]string{
	"digital marketing":    {"marketing", "seo", "sem", "ppc", "social media", "content", "brand", "campaign", "growth"},
	"marketing":            {"marketing", "seo", "brand", "campaign", "content", "communications", "social media"},
	"software engineering": {"software", "engineer", "developer", "backend", "frontend", "full stack", "devops", "architect"},
	"data science":         {"data scientist", "data analyst", "machine learning", "analytics", "data engineer"},
	"finance":              {"finance", "financial", "accountant", "auditor", "controller", "treasury", "banking"},
	"sales":                {"sales", "account executive", "business development", "account manager", "revenue"},
	"design":               {"designer", "design", "ux", "creative", "graphic", "visual"},
	"human resources":      {"human resources", "recruiter", "recruiting", "talent", "people operations"},
}

// runAssembly enriches the ranked candidates with profiles, applies
// the relevance and domain hard filters, and builds the terminal
// response. Fails the run only when the profile fetch errors.
func (p *Pipeline) runAssembly(ctx context.Context, state *runState, out *sink) error {
	start := time.Now()
	out.emit(AgentStart(AgentAssembly, 6,
		fmt.Sprintf("📦 Assembling final shortlist with %d candidates...", len(state.ranked))))

	top := state.ranked[:min(2*p.cfg.Ranking.MaxResults, len(state.ranked))]
	ids := make([]string, len(top))
	for i, cand := range top {
		ids[i] = cand.CandidateID
	}

	out.emit(ToolCallEvent(AgentAssembly, ToolFetchProfiles,
		fmt.Sprintf("🔧 Enriching %d candidates with profile data...", len(ids))))
	profiles, err := p.store.ProfilesByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("profile fetch: %w", err)
	}
	profileByID := make(map[string]*store.Profile, len(profiles))
	for _, profile := range profiles {
		profileByID[profile.CandidateID] = profile
	}
	out.emit(ToolResultEvent(AgentAssembly, ToolFetchProfiles,
		fmt.Sprintf("📊 Loaded %d candidate profiles", len(profiles))))

	all := make([]*ShortlistResult, 0, len(top))
	for _, cand := range top {
		all = append(all, buildResult(cand, state.packs[cand.CandidateID], profileByID[cand.CandidateID]))
	}

	var results []*ShortlistResult
	var quality string
	if p.cfg.Ranking.HardFilterEnabled {
		survivors := make([]*ShortlistResult, 0, p.cfg.Ranking.MaxResults)
		for _, result := range all {
			if result.FinalScore < p.cfg.Ranking.MinRelevanceScore {
				continue
			}
			if state.mission.CoreDomain != "" && !headlineMatchesDomain(result.Headline, state.mission.CoreDomain) {
				continue
			}
			survivors = append(survivors, result)
			if len(survivors) >= p.cfg.Ranking.MaxResults {
				break
			}
		}
		switch {
		case len(survivors) > 0:
			results = survivors
			quality = MatchStrong
		case len(all) > 0:
			results = all[:min(weakMatchLimit, min(p.cfg.Ranking.MaxResults, len(all)))]
			quality = MatchWeak
		default:
			results = []*ShortlistResult{}
			quality = MatchNone
		}
	} else {
		results = all[:min(p.cfg.Ranking.MaxResults, len(all))]
		quality = MatchStrong
		if len(results) == 0 {
			quality = MatchNone
		}
	}

	state.response = &ShortlistResponse{
		RequestID:            state.requestID,
		MissionSpec:          state.mission,
		Results:              results,
		SuggestedRefinements: state.mission.Clarifications,
		StageTimings:         maps.Clone(state.stageTimings),
		TotalCandidatesFound: len(state.ranked),
		MatchQuality:         quality,
	}

	elapsed := time.Since(start)
	state.stageTimings[StageAssembly] = elapsed.Seconds()
	out.emit(StageCompleteEvent(StageAssembly, durationMS(elapsed),
		fmt.Sprintf("✅ Shortlist assembled: %d candidates returned (%dms)",
			len(results), durationMS(elapsed))))
	out.emit(ResultEvent(state.response,
		fmt.Sprintf("🎯 Pipeline complete! Returning %d ranked candidates.", len(results))))
	return nil
}

// buildResult merges one ranked candidate with its evidence pack and
// profile. Missing packs become empty packs; missing profiles leave
// the enrichment fields zeroed with a placeholder headline.
func buildResult(cand *search.RankedCandidate, pack *search.EvidencePack, profile *store.Profile) *ShortlistResult {
	if pack == nil {
		pack = &search.EvidencePack{
			CandidateID: cand.CandidateID,
			Evidence:    []search.EvidenceItem{},
			Highlights:  []string{},
		}
	}
	result := &ShortlistResult{
		CandidateID: cand.CandidateID,
		FinalScore:  cand.FinalScore,
		ScoreBreakdown: ScoreBreakdown{
			RRFScore:    cand.RRFScore,
			RerankScore: cand.RerankScore,
			DenseRank:   cand.DenseRank,
			SparseRank:  cand.SparseRank,
		},
		EvidencePack:  pack,
		Highlights:    pack.Highlights,
		Headline:      "No title available",
		MatchedSkills: cand.MatchedSkills,
	}
	if profile != nil {
		result.Name = profile.Name
		result.Headline = profile.Headline()
		result.TotalYOE = profile.TotalYOE
		result.LocationCountry = profile.LocationCountry
		result.LocationCity = profile.LocationCity
		result.Summary = profile.Summary
	}
	return result
}

// headlineMatchesDomain reports whether a candidate headline looks
// like it belongs to the given core domain. Checks the literal domain
// substring first, then the domain's keyword list; domains outside the
// lexicon fall back to matching any word of the domain name.
func headlineMatchesDomain(headline, domain string) bool {
	h := strings.ToLower(headline)
	domain = strings.ToLower(domain)
	if strings.Contains(h, domain) {
		return true
	}
	if keywords, ok := domainKeywords[domain]; ok {
		for _, kw := range keywords {
			if strings.Contains(h, kw) {
				return true
			}
		}
		return false
	}
	for _, word := range strings.Fields(domain) {
		if len(word) > 2 && strings.Contains(h, word) {
			return true
		}
	}
	return false
}
