package pipeline

import "context"

// Event types streamed to the client over SSE.
const (
	EventAgentStart    = "agent_start"
	EventAgentThought  = "agent_thought"
	EventToolCall      = "tool_call"
	EventToolResult    = "tool_result"
	EventMissionSpec   = "mission_spec"
	EventStageComplete = "stage_complete"
	EventResult        = "result"
	EventDone          = "done"
	EventError         = "error"
)

// EventChannelCapacity bounds the stream buffer between the pipeline
// and the SSE writer. Producers block when the consumer falls behind.
const EventChannelCapacity = 64

// doneMessage closes every successful stream.
const doneMessage = "Pipeline complete"

// Event is one server-sent event: a type for the "event:" line and a
// payload for the "data:" line.
type Event struct {
	Type    string
	Payload Payload
}

// Payload carries the event fields; unused fields are omitted from the
// JSON. Stage holds the stage number on agent_start and the stage name
// on stage_complete and error events. TimingMS is a pointer so that
// stage_complete always serializes timing_ms, a zero from a
// sub-millisecond stage included, while other event types omit it.
type Payload struct {
	Agent    string `json:"agent,omitempty"`
	Stage    any    `json:"stage,omitempty"`
	Tool     string `json:"tool,omitempty"`
	Message  string `json:"message,omitempty"`
	TimingMS *int64 `json:"timing_ms,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// AgentStart announces a stage beginning work.
func AgentStart(agent string, stage int, message string) Event {
	return Event{Type: EventAgentStart, Payload: Payload{Agent: agent, Stage: stage, Message: message}}
}

// Thought is free-form agent commentary, including degradation
// warnings.
func Thought(agent, message string) Event {
	return Event{Type: EventAgentThought, Payload: Payload{Agent: agent, Message: message}}
}

// ToolCallEvent brackets the start of an external call.
func ToolCallEvent(agent, tool, message string) Event {
	return Event{Type: EventToolCall, Payload: Payload{Agent: agent, Tool: tool, Message: message}}
}

// ToolResultEvent brackets the end of an external call.
func ToolResultEvent(agent, tool, message string) Event {
	return Event{Type: EventToolResult, Payload: Payload{Agent: agent, Tool: tool, Message: message}}
}

// MissionSpecEvent publishes the parsed mission spec.
func MissionSpecEvent(agent string, data any, message string) Event {
	return Event{Type: EventMissionSpec, Payload: Payload{Agent: agent, Data: data, Message: message}}
}

// StageCompleteEvent closes a stage with its wall time.
func StageCompleteEvent(stage string, timingMS int64, message string) Event {
	return Event{Type: EventStageComplete, Payload: Payload{Stage: stage, TimingMS: &timingMS, Message: message}}
}

// ResultEvent carries the final response payload.
func ResultEvent(data any, message string) Event {
	return Event{Type: EventResult, Payload: Payload{Data: data, Message: message}}
}

// DoneEvent terminates a successful stream.
func DoneEvent() Event {
	return Event{Type: EventDone, Payload: Payload{Message: doneMessage}}
}

// ErrorEvent terminates a failed stream, naming the stage that died.
func ErrorEvent(stage, message string) Event {
	return Event{Type: EventError, Payload: Payload{Stage: stage, Message: message}}
}

// sink serializes event emission for one run. Sends block on a full
// buffer while the run is live; once the run context ends, delivery
// degrades to best effort so a terminal error can still reach a
// consumer that is draining the buffer, without ever leaking a blocked
// producer.
type sink struct {
	ctx context.Context
	ch  chan<- Event
}

func (s *sink) emit(ev Event) {
	select {
	case s.ch <- ev:
	case <-s.ctx.Done():
		select {
		case s.ch <- ev:
		default:
		}
	}
}
