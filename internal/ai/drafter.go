package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/openai/openai-go"
)

// Drafter runs the non-streamed aux completions behind the document tools:
// drafting new content, rewriting existing content, and proposing
// suggestions.
type Drafter struct {
	Client *openai.Client
	Model  string
}

func (d *Drafter) complete(ctx context.Context, system, user string) (string, error) {
	if d.Client == nil {
		return "", errors.New("drafter: no client configured")
	}
	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		}),
		Model: openai.F(d.Model),
	}
	resp, err := d.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("drafter: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// DraftDocument produces the initial content for a new document.
func (d *Drafter) DraftDocument(ctx context.Context, title, kind string) (string, error) {
	system := "Write the content of a document based on the given title. Markdown is supported."
	if kind == "code" {
		system = "Write a self-contained code snippet based on the given title. Include brief comments."
	}
	return d.complete(ctx, system, title)
}

// RewriteDocument applies the described change to the current content and
// returns the full replacement text.
func (d *Drafter) RewriteDocument(ctx context.Context, current, description string) (string, error) {
	return d.complete(ctx,
		"Rewrite the following document according to the requested change. Return the full updated document only.",
		"Change request: "+description+"\n\nDocument:\n"+current)
}

// SuggestImprovements asks the model for improvement proposals as a JSON
// array and parses it. Non-JSON output degrades to a single free-form item.
func (d *Drafter) SuggestImprovements(ctx context.Context, content string) ([]SuggestionItem, error) {
	raw, err := d.complete(ctx,
		`Suggest improvements for the document. Respond with a JSON array of objects with keys "original_text", "suggested_text", and "description". Respond with JSON only.`,
		content)
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var items []SuggestionItem
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &items); err != nil {
		return []SuggestionItem{{Description: strings.TrimSpace(raw)}}, nil
	}
	return items, nil
}
