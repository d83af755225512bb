// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vote model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules to the services package.
//
// A user casts at most one vote per message; the (message_id,user_id) unique
// index backs the upsert so re-voting flips the existing row instead of
// accumulating duplicates.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
)

// UpsertVote records userID's rating of a message. A second vote on the same
// message replaces the first (ON CONFLICT on the message/user pair updates
// the direction in place).
func UpsertVote(ctx context.Context, db *gorm.DB, chatID, messageID, userID string, isUpvoted bool) error {
	v := &domain.Vote{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		MessageID: messageID,
		UserID:    userID,
		IsUpvoted: isUpvoted,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_upvoted", "updated_at"}),
	}).Create(v).Error
}

// ListVotesByChat returns every vote cast in a chat.
func ListVotesByChat(ctx context.Context, db *gorm.DB, chatID string) ([]domain.Vote, error) {
	var out []domain.Vote
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
