// Package services – TurnService
//
// This file implements the turn orchestrator: everything that happens when a
// user sends a message. A turn splits into two phases so the HTTP layer can
// still answer with a plain status code before any bytes are streamed:
//
//	Prepare: validate input, resolve the model variant, create the chat on
//	first contact (with a generated title), persist the user message, run the
//	relevance classifier, and assemble the system prompt — possibly with the
//	user's recent transactions injected.
//
//	Stream: run the model loop (tool calling included), forward events to the
//	caller, and persist the sanitized assistant reply when the turn finishes.
//
// Failures before streaming surface as sentinel errors; failures mid-stream
// become a terminal error event with a fixed message, because the HTTP status
// line is long gone by then.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/finchat/go-finance-chat-backend/internal/ai"
	"github.com/finchat/go-finance-chat-backend/internal/config"
	"github.com/finchat/go-finance-chat-backend/internal/domain"
	"github.com/finchat/go-finance-chat-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StreamErrorMessage is the fixed text sent to clients when generation fails
// mid-stream. Kept deliberately generic; the real error goes to the log.
const StreamErrorMessage = "Oops, an error occured!"

// RelevanceClassifier decides whether financial context should be injected
// for a message.
type RelevanceClassifier interface {
	IsFinancial(ctx context.Context, message string) bool
}

// TitleGenerator derives a chat title from the first user message.
type TitleGenerator interface {
	Generate(ctx context.Context, prompt string) string
}

// TurnStreamer runs the streaming model loop.
type TurnStreamer interface {
	Run(ctx context.Context, req ai.TurnRequest, emit ai.Emitter) (*ai.TurnResult, error)
}

// TurnService orchestrates a full conversation turn.
type TurnService struct {
	DB         *gorm.DB
	LLM        config.LLMConfig
	Streamer   TurnStreamer
	Classifier RelevanceClassifier
	Titler     TitleGenerator

	// Drafter backs the document tools' aux completions. Nil disables
	// content drafting (tools still run, documents start empty).
	Drafter *ai.Drafter

	// Weather tool plumbing, injectable for tests.
	WeatherHTTP    *http.Client
	WeatherBaseURL string

	// HistoryLimit caps how many prior messages are replayed to the model
	// (0 = all). TransactionLimit caps injected transactions.
	HistoryLimit     int
	TransactionLimit int

	// MaxPromptRunes guards against oversized prompts (0 = no cap).
	MaxPromptRunes int
}

// TurnInput is one incoming user turn.
type TurnInput struct {
	UserID  string
	ChatID  string
	Message string
	Variant string
}

// PreparedTurn is the outcome of the pre-stream phase.
type PreparedTurn struct {
	Chat      *domain.Chat
	Model     string
	Reasoning bool
	System    string
	History   []ai.Message
	UserID    string
}

const defaultTransactionLimit = 10

// Prepare runs every step that can still fail with a plain HTTP error:
// validation, chat resolution/creation, user-message persistence, and
// context assembly.
func (s *TurnService) Prepare(ctx context.Context, in TurnInput) (*PreparedTurn, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "Prepare",
		trace.WithAttributes(
			attribute.String("chat.id", in.ChatID),
			attribute.String("user.id", in.UserID),
			attribute.String("model.variant", in.Variant),
		),
	)
	defer span.End()

	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(message) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	model, reasoning, err := ai.ResolveModel(s.LLM, in.Variant)
	if err != nil {
		return nil, ErrUnknownModel
	}

	chat, err := s.resolveOrCreateChat(ctx, in.UserID, in.ChatID, message)
	if err != nil {
		return nil, err
	}

	// Replay window: everything said so far, before this turn's message.
	prior, err := repo.ListMessages(ctx, s.DB, chat.ID, s.HistoryLimit)
	if err != nil {
		return nil, err
	}
	history := make([]ai.Message, 0, len(prior)+1)
	for _, m := range prior {
		history = append(history, ai.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, ai.Message{Role: domain.RoleUser, Content: message})

	if _, err := repo.CreateMessage(ctx, s.DB, chat.ID, domain.RoleUser, message); err != nil {
		return nil, err
	}

	return &PreparedTurn{
		Chat:      chat,
		Model:     model,
		Reasoning: reasoning,
		System:    ai.BuildSystemPrompt(reasoning, s.transactionContext(ctx, in.UserID, message)),
		History:   history,
		UserID:    in.UserID,
	}, nil
}

// Stream runs the model loop for a prepared turn, forwarding events to emit.
// On success the sanitized assistant reply is persisted and a finish event is
// emitted; a failed save at that point is logged and swallowed, since the
// reply was already delivered. On generation failure a terminal error event
// carries the fixed message and the underlying error is returned for logging.
// A canceled context skips persistence entirely; half a reply is worse than
// none.
func (s *TurnService) Stream(ctx context.Context, prep *PreparedTurn, emit ai.Emitter) error {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "Stream",
		trace.WithAttributes(
			attribute.String("chat.id", prep.Chat.ID),
			attribute.String("model", prep.Model),
			attribute.Bool("model.reasoning", prep.Reasoning),
		),
	)
	defer span.End()

	req := ai.TurnRequest{
		Model:     prep.Model,
		System:    prep.System,
		Messages:  prep.History,
		Reasoning: prep.Reasoning,
	}
	// The reasoning variant runs without tools; its providers reject them.
	if !prep.Reasoning {
		req.Tools = s.buildTools(prep.UserID)
	}

	res, err := s.Streamer.Run(ctx, req, emit)
	if err != nil {
		if ctx.Err() == nil {
			emit(ai.Event{Type: ai.EventError, Content: StreamErrorMessage})
		}
		return err
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	// The reply already reached the client; a failed save must not turn a
	// delivered answer into an error. Log and finish the turn normally.
	text := ai.SanitizeAssistantText(res.Text)
	if text != "" {
		if _, err := repo.CreateMessage(ctx, s.DB, prep.Chat.ID, domain.RoleAssistant, text); err != nil {
			log.Error().Err(err).Str("chat_id", prep.Chat.ID).Msg("assistant message not persisted")
		}
	}
	emit(ai.Event{Type: ai.EventFinish})
	return nil
}

// resolveOrCreateChat loads the chat or, on first contact with a fresh ID,
// creates it titled after the opening message. A chat owned by someone else
// is rejected regardless of visibility: public chats are readable, never
// writable, by non-owners.
func (s *TurnService) resolveOrCreateChat(ctx context.Context, userID, chatID, message string) (*domain.Chat, error) {
	chat, err := repo.GetChatAny(ctx, s.DB, chatID)
	if err == nil {
		if chat.UserID != userID {
			return nil, ErrChatForbidden
		}
		return chat, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	title := ""
	if s.Titler != nil {
		title = s.Titler.Generate(ctx, message)
	}
	if title == "" {
		title = "New chat"
	}
	return repo.CreateChat(ctx, s.DB, chatID, userID, title)
}

// transactionContext returns the injected context block, or "" when the
// classifier says the message is not financial or the user has no mirrored
// transactions yet.
func (s *TurnService) transactionContext(ctx context.Context, userID, message string) string {
	if s.Classifier == nil || !s.Classifier.IsFinancial(ctx, message) {
		return ""
	}
	limit := s.TransactionLimit
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	txs, err := repo.ListRecentTransactions(ctx, s.DB, userID, limit)
	if err != nil {
		// Context injection is best-effort; the turn proceeds without it.
		return ""
	}
	return ai.TransactionContext(txs)
}

// buildTools assembles the per-turn toolset bound to the requesting user.
func (s *TurnService) buildTools(userID string) []ai.Tool {
	store := &userArtifacts{db: s.DB, userID: userID}

	var drafter func(ctx context.Context, title, kind string) (string, error)
	var rewriter func(ctx context.Context, current, description string) (string, error)
	var suggester func(ctx context.Context, content string) ([]ai.SuggestionItem, error)
	if s.Drafter != nil {
		drafter = s.Drafter.DraftDocument
		rewriter = s.Drafter.RewriteDocument
		suggester = s.Drafter.SuggestImprovements
	}

	return []ai.Tool{
		ai.NewGetWeatherTool(s.WeatherHTTP, s.WeatherBaseURL),
		ai.NewCreateDocumentTool(store, drafter),
		ai.NewUpdateDocumentTool(store, rewriter),
		ai.NewRequestSuggestionsTool(store, suggester),
	}
}
