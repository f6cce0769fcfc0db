package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hirepath/shortlist/internal/mission"
)

// runJDUnderstanding parses the raw query into a mission spec. A blank
// query short-circuits to an empty spec; a parser failure falls back
// to keyword extraction. This stage never fails the run.
func (p *Pipeline) runJDUnderstanding(ctx context.Context, state *runState, out *sink) error {
	start := time.Now()
	out.emit(AgentStart(AgentJDUnderstanding, 1, "🧠 Analyzing your query to extract structured requirements..."))

	query := strings.TrimSpace(state.queryText)
	if query == "" {
		out.emit(Thought(AgentJDUnderstanding, "⚠️ No query provided, using empty mission spec"))
		state.mission = mission.EmptySpec("")
		state.stageTimings[StageJDUnderstanding] = time.Since(start).Seconds()
		return nil
	}

	out.emit(Thought(AgentJDUnderstanding, fmt.Sprintf("📝 Reading query: \"%s\"", ellipsize(query, 100))))

	if p.parser != nil {
		out.emit(ToolCallEvent(AgentJDUnderstanding, ToolOpenAIParse, "🔧 Calling OpenAI to parse requirements..."))
		spec, err := p.parser.ParseQuery(ctx, query)
		if err != nil {
			p.logger.Warn("query parse failed, using keyword fallback",
				"request_id", state.requestID, "error", err)
			out.emit(Thought(AgentJDUnderstanding, "⚠️ LLM parse failed, using keyword extraction fallback..."))
			spec, _ = p.fallback.ParseQuery(ctx, query)
		}
		state.mission = spec
	} else {
		spec, _ := p.fallback.ParseQuery(ctx, query)
		state.mission = spec
	}

	out.emit(MissionSpecEvent(AgentJDUnderstanding, state.mission,
		fmt.Sprintf("✅ Extracted %d must-have skills, %d nice-to-have",
			len(state.mission.MustHave), len(state.mission.NiceToHave))))

	elapsed := time.Since(start)
	state.stageTimings[StageJDUnderstanding] = elapsed.Seconds()
	out.emit(StageCompleteEvent(StageJDUnderstanding, durationMS(elapsed),
		fmt.Sprintf("✅ JD Understanding complete (%dms)", durationMS(elapsed))))
	return nil
}
