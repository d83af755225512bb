package ai

import "encoding/json"

// EventType identifies one frame of the turn stream.
type EventType string

// Stream event types emitted during a turn, in the order a client may see
// them: deltas and tool activity while the model works, then exactly one
// finish or error frame.
const (
	EventTextDelta  EventType = "text-delta"
	EventReasoning  EventType = "reasoning"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

// Event is one frame of the turn stream. Only the fields relevant to the
// event type are populated.
type Event struct {
	Type EventType `json:"type"`

	// text-delta / reasoning / error
	Content string `json:"content,omitempty"`

	// tool-call / tool-result
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     string          `json:"result,omitempty"`
}

// Emitter receives stream events as they are produced. Implementations must
// not block for long; the turn loop calls them inline.
type Emitter func(Event)
