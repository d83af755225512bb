package ai

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const titleMaxRunes = 80

// Titler derives a chat title from the first user message. It prefers the aux
// model; when that fails (error, timeout, empty output) it falls back to a
// local keyword heuristic so a new chat never keeps the placeholder title.
type Titler struct {
	Client  *openai.Client
	Model   string
	Timeout time.Duration
	Locale  language.Tag
}

// Generate returns a cleaned title for the prompt, never empty for a
// non-empty prompt.
func (t *Titler) Generate(ctx context.Context, prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ""
	}
	if title := t.fromModel(ctx, prompt); title != "" {
		return title
	}
	return t.fromKeywords(prompt)
}

func (t *Titler) fromModel(ctx context.Context, prompt string) string {
	if t.Client == nil {
		return ""
	}
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(titlePrompt),
			openai.UserMessage(prompt),
		}),
		Model: openai.F(t.Model),
	}
	resp, err := t.Client.Chat.Completions.New(ctx, params)
	if err != nil || len(resp.Choices) == 0 {
		return ""
	}
	return CleanTitle(resp.Choices[0].Message.Content)
}

// fromKeywords builds a compact title from the prompt's non-stopword tokens.
func (t *Titler) fromKeywords(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	if len(toks) == 0 {
		return ""
	}
	locale := t.Locale
	if locale == language.Und {
		locale = language.English
	}
	titleCaser := cases.Title(locale)
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		// nothing left after filtering; keep the first few raw tokens
		for _, w := range toks {
			out = append(out, titleCaser.String(w))
			if len(out) >= 8 {
				break
			}
		}
	}
	return CleanTitle(strings.Join(out, " "))
}

// CleanTitle strips quotes, colons, and surrounding whitespace from a model
// answer and clips it to the title length cap.
func CleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.ReplaceAll(s, ":", "")
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > titleMaxRunes {
		s = string([]rune(s)[:titleMaxRunes])
		s = strings.TrimSpace(s)
	}
	return s
}

// Extract Unicode letters with optional trailing numbers (e.g., "q3report").
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
