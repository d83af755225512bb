package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
)

func newVoteRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("vote_repo_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Message{}, &domain.Vote{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestUpsertVote_InsertThenFlip(t *testing.T) {
	db := newVoteRepoDB(t)
	ctx := context.Background()

	if err := UpsertVote(ctx, db, "c1", "m1", "u1", true); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	// Re-voting flips the direction instead of inserting a second row.
	if err := UpsertVote(ctx, db, "c1", "m1", "u1", false); err != nil {
		t.Fatalf("second vote: %v", err)
	}

	votes, err := ListVotesByChat(ctx, db, "c1")
	if err != nil {
		t.Fatalf("ListVotesByChat: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("expected 1 vote row, got %d", len(votes))
	}
	if votes[0].IsUpvoted {
		t.Fatalf("expected flipped vote to be a downvote: %+v", votes[0])
	}
}

func TestUpsertVote_DistinctUsersKeepSeparateRows(t *testing.T) {
	db := newVoteRepoDB(t)
	ctx := context.Background()

	if err := UpsertVote(ctx, db, "c1", "m1", "u1", true); err != nil {
		t.Fatalf("u1 vote: %v", err)
	}
	if err := UpsertVote(ctx, db, "c1", "m1", "u2", false); err != nil {
		t.Fatalf("u2 vote: %v", err)
	}

	votes, err := ListVotesByChat(ctx, db, "c1")
	if err != nil {
		t.Fatalf("ListVotesByChat: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("expected 2 vote rows, got %d", len(votes))
	}
}

func TestListVotesByChat_EmptyAndScoped(t *testing.T) {
	db := newVoteRepoDB(t)
	ctx := context.Background()

	if err := UpsertVote(ctx, db, "other", "mX", "u1", true); err != nil {
		t.Fatalf("seed: %v", err)
	}

	votes, err := ListVotesByChat(ctx, db, "c-empty")
	if err != nil {
		t.Fatalf("ListVotesByChat: %v", err)
	}
	if len(votes) != 0 {
		t.Fatalf("expected no votes, got %+v", votes)
	}
}
