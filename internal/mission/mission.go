// Package mission turns free-text recruiter queries into structured
// MissionSpecs. The primary parser asks a chat-completion model to do
// the extraction; a deterministic keyword parser covers model failures
// and deployments where no model is configured.
package mission

import "strings"

// MissionSpec is the structured form of a recruiter query. Downstream
// stages read from it: skill gating uses MustHave, retrieval and
// reranking build their query text from RawQuery and the skill union,
// and assembly surfaces Clarifications as suggested refinements.
type MissionSpec struct {
	// MustHave lists canonical skills the candidate is required to have.
	MustHave []string `json:"must_have"`
	// NiceToHave lists preferred but optional skills.
	NiceToHave []string `json:"nice_to_have"`
	// NegativeConstraints lists skills or domains whose presence
	// disqualifies a candidate.
	NegativeConstraints []string `json:"negative_constraints"`
	// MinYears is the minimum years of experience, when the query
	// states one. Nil means no requirement.
	MinYears *int `json:"min_years"`
	// Location is the preferred location, free text.
	Location string `json:"location,omitempty"`
	// CoreDomain is the professional domain the query targets, e.g.
	// "digital marketing". The assembly hard filter matches candidate
	// headlines against it.
	CoreDomain string `json:"core_domain,omitempty"`
	// RawQuery preserves the original query text verbatim.
	RawQuery string `json:"raw_query"`
	// Clarifications are short suggestions for what the recruiter
	// could add to sharpen the search.
	Clarifications []string `json:"clarifications"`
}

// EmptySpec returns a MissionSpec with no extracted requirements. The
// slices are non-nil so the spec serializes with empty arrays rather
// than nulls.
func EmptySpec(rawQuery string) MissionSpec {
	return MissionSpec{
		MustHave:            []string{},
		NiceToHave:          []string{},
		NegativeConstraints: []string{},
		RawQuery:            rawQuery,
		Clarifications:      []string{},
	}
}

// SkillUnion returns must-have and nice-to-have skills as one
// deduplicated list, must-have first.
func (m MissionSpec) SkillUnion() []string {
	seen := make(map[string]struct{}, len(m.MustHave)+len(m.NiceToHave))
	union := make([]string, 0, len(m.MustHave)+len(m.NiceToHave))
	for _, skill := range append(append([]string{}, m.MustHave...), m.NiceToHave...) {
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		union = append(union, skill)
	}
	return union
}

// QueryText builds the text the search backends run against: the raw
// query when present, otherwise a "Skills: ..." sentence over the
// skill union. Empty when the spec carries neither.
func (m MissionSpec) QueryText() string {
	if m.RawQuery != "" {
		return m.RawQuery
	}
	union := m.SkillUnion()
	if len(union) == 0 {
		return ""
	}
	return "Skills: " + strings.Join(union, "; ") + "."
}
