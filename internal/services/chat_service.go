// Package services – ChatService
//
// This file implements the ChatService, which manages the lifecycle of
// existing chats: listing, reading (with visibility rules), changing
// visibility, and deleting. Chat creation happens inside TurnService because
// the first turn creates the chat row with a generated title.
//
// Service-level errors (e.g., ErrChatNotFound, ErrChatForbidden) are returned
// for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
	"github.com/finchat/go-finance-chat-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ChatService provides chat-level operations over persisted conversations.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{DB: db}
}

// List returns all chats for a user, newest first.
func (s *ChatService) List(ctx context.Context, userID string) ([]domain.Chat, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return repo.ListChats(ctx, s.DB, userID)
}

// ListPage returns a page of chats for a user (paginated).
// It applies defaults for invalid page/pageSize and returns total count.
func (s *ChatService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountChats(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}

	items, err := repo.ListChatsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get returns a chat, applying visibility rules: the owner always sees it,
// everyone else only when it is public.
func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	return s.resolveReadable(ctx, userID, chatID)
}

// Messages returns the messages of a chat the user is allowed to read,
// oldest first.
func (s *ChatService) Messages(ctx context.Context, userID, chatID string) ([]domain.Message, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Messages",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := s.resolveReadable(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return repo.ListMessages(ctx, s.DB, chatID, 0)
}

// MessagesPage returns a page of a readable chat's messages (oldest first)
// plus the total count.
func (s *ChatService) MessagesPage(ctx context.Context, userID, chatID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "MessagesPage",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if _, err := s.resolveReadable(ctx, userID, chatID); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountMessages(ctx, s.DB, chatID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(ctx, s.DB, chatID, offset, pageSize)
	return items, total, err
}

// UpdateVisibility sets a chat's visibility. Only the owner may do this.
func (s *ChatService) UpdateVisibility(ctx context.Context, userID, chatID, visibility string) error {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "UpdateVisibility",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("visibility", visibility),
		),
	)
	defer span.End()

	if visibility != domain.VisibilityPrivate && visibility != domain.VisibilityPublic {
		return ErrInvalidVisibility
	}
	if err := repo.UpdateChatVisibility(ctx, s.DB, chatID, userID, visibility); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	return nil
}

// Delete removes a chat with its messages and votes. Only the owner may
// delete; a foreign chat is reported as ErrChatForbidden so the caller can
// distinguish it from a missing one.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	chat, err := repo.GetChatAny(ctx, s.DB, chatID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	if chat.UserID != userID {
		return ErrChatForbidden
	}
	return repo.DeleteChat(ctx, s.DB, chatID)
}

// resolveReadable loads a chat and enforces the private/public rule.
func (s *ChatService) resolveReadable(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	chat, err := repo.GetChatAny(ctx, s.DB, chatID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if chat.UserID != userID && chat.Visibility != domain.VisibilityPublic {
		return nil, ErrChatForbidden
	}
	return chat, nil
}
