// Package services – VoteService
//
// This file implements the VoteService, which governs how users rate
// assistant messages. It enforces business rules (message existence, chat
// ownership, assistant-only restriction) and upserts the vote so re-voting
// flips the direction instead of failing.
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

// VoteService implements the use-cases around message votes.
type VoteService struct {
	// DB is the database handle used for all vote operations.
	DB *gorm.DB
}

// Cast records userID's up/down rating of messageID.
//
// Semantics and validation:
//   - messageID must exist; otherwise ErrMessageNotFound.
//   - The message must belong to a chat owned by userID; otherwise
//     ErrForbiddenVote.
//   - Votes are allowed only on assistant messages; user messages are
//     rejected with ErrForbiddenVote.
//   - Re-voting updates the stored direction (no duplicate error).
//
// The existence/ownership checks and the upsert run in one transaction.
func (s *VoteService) Cast(ctx context.Context, userID, messageID string, isUpvoted bool) error {
	tr := otel.Tracer("services/VoteService")
	ctx, span := tr.Start(ctx, "Cast",
		trace.WithAttributes(
			attribute.String("message.id", messageID),
			attribute.String("user.id", userID),
			attribute.Bool("vote.up", isUpvoted),
		),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := repo.GetMessage(ctx, tx, messageID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMessageNotFound
			}
			return err
		}

		// The message's chat must belong to this user.
		if _, err := repo.GetChat(ctx, tx, msg.ChatID, userID); err != nil {
			return ErrForbiddenVote
		}

		if msg.Role != domain.RoleAssistant {
			return ErrForbiddenVote
		}

		return repo.UpsertVote(ctx, tx, msg.ChatID, messageID, userID, isUpvoted)
	})
}

// List returns the votes in a chat the user owns.
func (s *VoteService) List(ctx context.Context, userID, chatID string) ([]domain.Vote, error) {
	tr := otel.Tracer("services/VoteService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if _, err := repo.GetChat(ctx, s.DB, chatID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return repo.ListVotesByChat(ctx, s.DB, chatID)
}
