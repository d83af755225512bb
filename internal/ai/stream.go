package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

// Message is one prior utterance fed into the model.
type Message struct {
	Role    string
	Content string
}

// TurnRequest describes one full generation turn.
type TurnRequest struct {
	Model    string
	System   string
	Messages []Message

	// Tools enables the agentic loop. Leave empty (the reasoning variant
	// does) to run a single plain completion.
	Tools []Tool

	// Reasoning turns on <think> splitting for models that interleave
	// chain-of-thought with the answer in one token stream.
	Reasoning bool
}

// TurnResult is the accumulated outcome of a turn.
type TurnResult struct {
	Text      string
	Reasoning string
	Steps     int
}

// Streamer runs the multi-step streaming loop against the provider: stream a
// completion, surface deltas as events, execute any finished tool calls, feed
// the results back, repeat until the model answers in plain text or the step
// cap is reached.
type Streamer struct {
	Client   *openai.Client
	MaxSteps int
}

// Run executes the turn. Every delta and tool interaction is forwarded to
// emit as it happens; the final text and reasoning are also returned
// accumulated for persistence. A provider or tool failure aborts the loop
// with an error — the caller decides what reaches the client.
func (s *Streamer) Run(ctx context.Context, req TurnRequest, emit Emitter) (*TurnResult, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	maxSteps := s.MaxSteps
	if maxSteps < 1 {
		maxSteps = 1
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{}),
		Model:    openai.F(req.Model),
	}
	if req.System != "" {
		params.Messages.Value = append(params.Messages.Value, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			params.Messages.Value = append(params.Messages.Value, openai.AssistantMessage(m.Content))
		case "system":
			params.Messages.Value = append(params.Messages.Value, openai.SystemMessage(m.Content))
		default:
			params.Messages.Value = append(params.Messages.Value, openai.UserMessage(m.Content))
		}
	}
	if len(req.Tools) > 0 {
		toolParams := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			toolParams = append(toolParams, t.Param)
		}
		params.Tools = openai.F(toolParams)
	}

	res := &TurnResult{}
	var text, reasoning strings.Builder
	split := &thinkSplitter{}

	for step := 1; step <= maxSteps; step++ {
		res.Steps = step

		stream := s.Client.Chat.Completions.NewStreaming(ctx, params)
		acc := openai.ChatCompletionAccumulator{}
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if req.Reasoning {
				t, th := split.feed(delta)
				if th != "" {
					reasoning.WriteString(th)
					emit(Event{Type: EventReasoning, Content: th})
				}
				if t != "" {
					text.WriteString(t)
					emit(Event{Type: EventTextDelta, Content: t})
				}
			} else {
				text.WriteString(delta)
				emit(Event{Type: EventTextDelta, Content: delta})
			}
		}
		if err := stream.Err(); err != nil {
			return nil, fmt.Errorf("completion stream: %w", err)
		}
		if req.Reasoning {
			if t, th := split.flush(); t != "" || th != "" {
				if th != "" {
					reasoning.WriteString(th)
					emit(Event{Type: EventReasoning, Content: th})
				}
				if t != "" {
					text.WriteString(t)
					emit(Event{Type: EventTextDelta, Content: t})
				}
			}
		}

		if len(acc.Choices) == 0 {
			break
		}
		msg := acc.Choices[0].Message
		if len(msg.ToolCalls) == 0 || len(req.Tools) == 0 {
			break
		}

		// Tool round: echo the assistant turn and every tool result back
		// into the conversation, then stream the next step.
		params.Messages.Value = append(params.Messages.Value, msg)
		for _, call := range msg.ToolCalls {
			emit(Event{
				Type:       EventToolCall,
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
				Args:       json.RawMessage(call.Function.Arguments),
			})
			out, err := s.dispatch(ctx, req.Tools, call.Function.Name, call.Function.Arguments)
			if err != nil {
				// Tool failures are reported to the model, not fatal to
				// the turn; the model can recover or apologize.
				payload, _ := json.Marshal(map[string]string{"error": err.Error()})
				out = string(payload)
			}
			emit(Event{
				Type:       EventToolResult,
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
				Result:     out,
			})
			params.Messages.Value = append(params.Messages.Value, openai.ToolMessage(call.ID, out))
		}
	}

	res.Text = text.String()
	res.Reasoning = reasoning.String()
	return res, nil
}

func (s *Streamer) dispatch(ctx context.Context, tools []Tool, name, rawArgs string) (string, error) {
	for _, t := range tools {
		if t.Param.Function.Value.Name.Value == name {
			return t.Run(ctx, json.RawMessage(rawArgs))
		}
	}
	return "", fmt.Errorf("no such tool: %s", name)
}
