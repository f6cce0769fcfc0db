package mission

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	serrors "github.com/hirepath/shortlist/internal/errors"
	"github.com/hirepath/shortlist/internal/skills"
)

// QueryParser extracts a MissionSpec from free-text query input.
type QueryParser interface {
	// ParseQuery parses the query text into a structured spec.
	ParseQuery(ctx context.Context, query string) (MissionSpec, error)
}

// systemPrompt instructs the model to emit a JSON object matching the
// MissionSpec schema. Parsing tolerates a markdown code fence around
// the object but nothing else.
const systemPrompt = `You are a recruitment query analyst. Your job is to parse a recruiter's search query or job description into structured requirements.

Given the user's query, you MUST extract:
1. **must_have**: Skills, technologies, or qualifications that are explicitly required. Be specific. Normalize technology names (e.g., "React.js" -> "react", "Node" -> "nodejs").
2. **nice_to_have**: Skills mentioned as preferred, bonus, or optional.
3. **negative_constraints**: Technologies, roles, or domains explicitly excluded (look for "not", "except", "excluding", "no").
4. **min_years**: Minimum years of experience if mentioned (extract the number only).
5. **location**: Preferred location if mentioned.
6. **core_domain**: The professional domain the query targets if clear (e.g., "digital marketing", "software engineering", "data science").
7. **clarifications**: Anything ambiguous or missing that the recruiter might want to specify. Keep these concise.

IMPORTANT RULES:
- Extract ACTUAL skill names, not generic descriptions. "experience with databases" -> "databases"
- Normalize common aliases: "JS" -> "javascript", "ML" -> "machine learning", "k8s" -> "kubernetes"
- If the query is just a list of skills, put them all in must_have.
- Keep everything lowercase.
- Return valid JSON matching the schema exactly.

You must respond with a JSON object matching this schema:
{
    "must_have": ["skill1", "skill2"],
    "nice_to_have": ["skill3"],
    "negative_constraints": ["excluded1"],
    "min_years": null,
    "location": null,
    "core_domain": null,
    "clarifications": ["suggestion1"]
}`

// ChatCompleter is the slice of the chat-completion client the parser
// needs.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMParser extracts MissionSpecs with a chat-completion model.
type LLMParser struct {
	llm ChatCompleter
}

// NewLLMParser creates a parser backed by the given completion client.
func NewLLMParser(llm ChatCompleter) *LLMParser {
	return &LLMParser{llm: llm}
}

// llmSpec mirrors the JSON schema the system prompt demands. Fields
// the model invents beyond these are dropped during unmarshaling.
// MinYears is a float because models sometimes answer "5.0".
type llmSpec struct {
	MustHave            []string `json:"must_have"`
	NiceToHave          []string `json:"nice_to_have"`
	NegativeConstraints []string `json:"negative_constraints"`
	MinYears            *float64 `json:"min_years"`
	Location            *string  `json:"location"`
	CoreDomain          *string  `json:"core_domain"`
	Clarifications      []string `json:"clarifications"`
}

// ParseQuery asks the model to extract structured requirements from
// the query. Any completion or parse failure is returned to the caller,
// which is expected to fall back to keyword extraction.
func (p *LLMParser) ParseQuery(ctx context.Context, query string) (MissionSpec, error) {
	content, err := p.llm.Complete(ctx, systemPrompt, "Parse this recruitment query:\n\n"+query)
	if err != nil {
		return MissionSpec{}, serrors.Wrap(serrors.ErrCodeLLMFailed, err)
	}

	var parsed llmSpec
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		return MissionSpec{}, serrors.New(serrors.ErrCodeLLMFailed,
			fmt.Sprintf("model response is not valid mission JSON: %v", err), err)
	}

	spec := EmptySpec(query)
	if normalized := skills.NormalizeAll(parsed.MustHave); normalized != nil {
		spec.MustHave = normalized
	}
	if normalized := skills.NormalizeAll(parsed.NiceToHave); normalized != nil {
		spec.NiceToHave = normalized
	}
	if normalized := skills.NormalizeAll(parsed.NegativeConstraints); normalized != nil {
		spec.NegativeConstraints = normalized
	}
	if parsed.MinYears != nil && *parsed.MinYears >= 0 {
		years := int(*parsed.MinYears)
		spec.MinYears = &years
	}
	if parsed.Location != nil {
		spec.Location = strings.TrimSpace(*parsed.Location)
	}
	if parsed.CoreDomain != nil {
		// Lowercase here so the assembly domain filter compares
		// like against like.
		spec.CoreDomain = strings.ToLower(strings.TrimSpace(*parsed.CoreDomain))
	}
	for _, c := range parsed.Clarifications {
		if c = strings.TrimSpace(c); c != "" {
			spec.Clarifications = append(spec.Clarifications, c)
		}
	}
	return spec, nil
}

// stripCodeFence unwraps a ```json or ``` fenced block, returning the
// inner content trimmed. Text without a fence passes through trimmed.
func stripCodeFence(s string) string {
	for _, fence := range []string{"```json", "```"} {
		_, after, found := strings.Cut(s, fence)
		if !found {
			continue
		}
		if inner, _, closed := strings.Cut(after, "```"); closed {
			return strings.TrimSpace(inner)
		}
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(s)
}

// fallbackClarification tells the recruiter the degraded path ran.
const fallbackClarification = "Query was parsed using keyword extraction. Provide a more detailed JD for better results."

var (
	// yearsPattern pulls the experience requirement out of phrases
	// like "5+ years", "3 yrs" or "7 YOE".
	yearsPattern = regexp.MustCompile(`(?i)(\d+)\+?\s*(?:years?|yrs?|yoe)`)

	// fragmentPattern splits a query into candidate skill fragments.
	fragmentPattern = regexp.MustCompile(`[,;.\n]+`)

	// stopwordPattern removes filler words so "experience with python"
	// reduces to the skill itself.
	stopwordPattern = regexp.MustCompile(`\b(?:with|and|or|experience|in|of|the|a|an|for|to|is|are|we|need|looking|senior|junior|mid|level|developer|engineer|specialist)\b`)
)

// FallbackParser extracts skills with regex splitting and a stopword
// filter. It never fails, which makes it the safety net for model
// outages and unconfigured deployments.
type FallbackParser struct{}

// ParseQuery deterministically extracts skills from the query text.
// Fragments between commas, semicolons, periods and newlines become
// must-have skills once stopwords are stripped; a clarification notes
// that keyword extraction was used.
func (p *FallbackParser) ParseQuery(_ context.Context, query string) (MissionSpec, error) {
	spec := EmptySpec(query)
	if query == "" {
		return spec, nil
	}

	if m := yearsPattern.FindStringSubmatch(query); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil {
			spec.MinYears = &years
		}
	}

	var extracted []string
	for _, fragment := range fragmentPattern.Split(query, -1) {
		cleaned := stopwordPattern.ReplaceAllString(strings.ToLower(fragment), " ")
		cleaned = strings.Join(strings.Fields(cleaned), " ")
		if len(cleaned) >= 2 && len(cleaned) <= 50 {
			extracted = append(extracted, cleaned)
		}
	}
	if normalized := skills.NormalizeAll(extracted); normalized != nil {
		spec.MustHave = normalized
	}

	spec.Clarifications = append(spec.Clarifications, fallbackClarification)
	return spec, nil
}

// Verify interface implementation at compile time
var (
	_ QueryParser = (*LLMParser)(nil)
	_ QueryParser = (*FallbackParser)(nil)
)
