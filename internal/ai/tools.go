package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
)

// Tool pairs a provider-visible function definition with its local handler.
// The handler returns the JSON (or plain text) payload sent back to the model
// as the tool result.
type Tool struct {
	Param openai.ChatCompletionToolParam
	Run   func(ctx context.Context, args json.RawMessage) (string, error)
}

// SuggestionItem is one improvement proposal produced by the
// requestSuggestions tool.
type SuggestionItem struct {
	OriginalText  string `json:"original_text"`
	SuggestedText string `json:"suggested_text"`
	Description   string `json:"description"`
}

// ArtifactStore persists documents and suggestions created by tool calls.
// The services layer implements it bound to the requesting user.
type ArtifactStore interface {
	CreateDocument(ctx context.Context, id, title, content, kind string) error
	GetDocument(ctx context.Context, id string) (title, content string, err error)
	UpdateDocument(ctx context.Context, id, content string) error
	SaveSuggestions(ctx context.Context, documentID string, items []SuggestionItem) error
}

func functionTool(name, description string, params openai.FunctionParameters) openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: openai.F(openai.ChatCompletionToolTypeFunction),
		Function: openai.F(openai.FunctionDefinitionParam{
			Name:        openai.F(name),
			Description: openai.F(description),
			Parameters:  openai.F(params),
		}),
	}
}

// DefaultWeatherBaseURL is the public Open-Meteo forecast endpoint.
const DefaultWeatherBaseURL = "https://api.open-meteo.com/v1/forecast"

// NewGetWeatherTool returns the getWeather tool backed by the Open-Meteo
// forecast API. httpClient and baseURL are injectable for tests; zero values
// select sane defaults.
func NewGetWeatherTool(httpClient *http.Client, baseURL string) Tool {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultWeatherBaseURL
	}
	return Tool{
		Param: functionTool("getWeather",
			"Get the current weather at a location.",
			openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"latitude":  map[string]any{"type": "number"},
					"longitude": map[string]any{"type": "number"},
				},
				"required": []string{"latitude", "longitude"},
			}),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("getWeather: bad arguments: %w", err)
			}

			q := url.Values{}
			q.Set("latitude", fmt.Sprintf("%g", in.Latitude))
			q.Set("longitude", fmt.Sprintf("%g", in.Longitude))
			q.Set("current", "temperature_2m")
			q.Set("hourly", "temperature_2m")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+q.Encode(), nil)
			if err != nil {
				return "", err
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("getWeather: upstream status %d", resp.StatusCode)
			}
			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return "", err
			}
			return string(body), nil
		},
	}
}

// NewCreateDocumentTool returns the createDocument tool. Content is drafted
// by the drafter callback (an aux model call in production) and persisted via
// the store; the model receives the new document's id back.
func NewCreateDocumentTool(store ArtifactStore, drafter func(ctx context.Context, title, kind string) (string, error)) Tool {
	return Tool{
		Param: functionTool("createDocument",
			"Create a document artifact with the given title. Use for substantial content such as essays, code, or plans.",
			openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"kind":  map[string]any{"type": "string", "enum": []string{"text", "code"}},
				},
				"required": []string{"title", "kind"},
			}),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Title string `json:"title"`
				Kind  string `json:"kind"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("createDocument: bad arguments: %w", err)
			}
			if strings.TrimSpace(in.Title) == "" {
				return "", errors.New("createDocument: title is required")
			}
			if in.Kind == "" {
				in.Kind = "text"
			}

			content := ""
			if drafter != nil {
				c, err := drafter(ctx, in.Title, in.Kind)
				if err != nil {
					return "", err
				}
				content = c
			}

			id := uuid.NewString()
			if err := store.CreateDocument(ctx, id, in.Title, content, in.Kind); err != nil {
				return "", err
			}
			out, _ := json.Marshal(map[string]string{
				"id": id, "title": in.Title, "kind": in.Kind,
				"message": "A document was created and is now visible to the user.",
			})
			return string(out), nil
		},
	}
}

// NewUpdateDocumentTool returns the updateDocument tool. The rewriter
// callback produces the new content from the current content plus the
// model's change description.
func NewUpdateDocumentTool(store ArtifactStore, rewriter func(ctx context.Context, current, description string) (string, error)) Tool {
	return Tool{
		Param: functionTool("updateDocument",
			"Update an existing document with the described changes.",
			openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"id":          map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
				"required": []string{"id", "description"},
			}),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				ID          string `json:"id"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("updateDocument: bad arguments: %w", err)
			}

			_, current, err := store.GetDocument(ctx, in.ID)
			if err != nil {
				return "", err
			}
			content := current
			if rewriter != nil {
				c, err := rewriter(ctx, current, in.Description)
				if err != nil {
					return "", err
				}
				content = c
			}
			if err := store.UpdateDocument(ctx, in.ID, content); err != nil {
				return "", err
			}
			out, _ := json.Marshal(map[string]string{
				"id": in.ID, "message": "The document has been updated.",
			})
			return string(out), nil
		},
	}
}

// NewRequestSuggestionsTool returns the requestSuggestions tool. The
// suggester callback proposes improvements for the document content; the
// results are persisted and echoed back to the model.
func NewRequestSuggestionsTool(store ArtifactStore, suggester func(ctx context.Context, content string) ([]SuggestionItem, error)) Tool {
	return Tool{
		Param: functionTool("requestSuggestions",
			"Request writing suggestions for an existing document.",
			openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"documentId": map[string]any{"type": "string"},
				},
				"required": []string{"documentId"},
			}),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				DocumentID string `json:"documentId"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("requestSuggestions: bad arguments: %w", err)
			}

			_, content, err := store.GetDocument(ctx, in.DocumentID)
			if err != nil {
				return "", err
			}
			var items []SuggestionItem
			if suggester != nil {
				items, err = suggester(ctx, content)
				if err != nil {
					return "", err
				}
			}
			if err := store.SaveSuggestions(ctx, in.DocumentID, items); err != nil {
				return "", err
			}
			out, _ := json.Marshal(map[string]any{
				"documentId": in.DocumentID,
				"count":      len(items),
				"message":    "Suggestions were added to the document.",
			})
			return string(out), nil
		},
	}
}
