package ai

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// Classifier decides whether a message warrants financial context injection.
// It is deliberately fail-closed: any provider error, timeout, or unexpected
// output means "not financial" so the main turn proceeds without context.
type Classifier struct {
	Client  *openai.Client
	Model   string
	Timeout time.Duration
}

// IsFinancial asks the aux model for a TRUE/FALSE verdict on the message.
// The verdict is trimmed and upper-cased, then compared for exact equality
// to TRUE; anything else counts as FALSE.
func (c *Classifier) IsFinancial(ctx context.Context, message string) bool {
	if c.Client == nil || message == "" {
		return false
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierPrompt),
			openai.UserMessage(message),
		}),
		Model: openai.F(c.Model),
	}
	resp, err := c.Client.Chat.Completions.New(ctx, params)
	if err != nil || len(resp.Choices) == 0 {
		return false
	}
	return strings.ToUpper(strings.TrimSpace(resp.Choices[0].Message.Content)) == "TRUE"
}
