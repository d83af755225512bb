package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
)

func newUserRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("user_repo_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreateUser_SuccessAndDuplicateEmail(t *testing.T) {
	db := newUserRepoDB(t)
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "alice@example.com", "$2a$10$hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Email != "alice@example.com" || u.Password != "$2a$10$hash" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := CreateUser(ctx, db, "alice@example.com", "$2a$10$other"); err == nil {
		t.Fatalf("expected unique-constraint error for duplicate email")
	}
}

func TestGetUserByEmail_FoundAndNotFound(t *testing.T) {
	db := newUserRepoDB(t)
	ctx := context.Background()

	created, err := CreateUser(ctx, db, "bob@example.com", "hash")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	got, err := GetUserByEmail(ctx, db, "bob@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("mismatch: %+v vs %+v", got, created)
	}

	if _, err := GetUserByEmail(ctx, db, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUser_ByID(t *testing.T) {
	db := newUserRepoDB(t)
	ctx := context.Background()

	created, err := CreateUser(ctx, db, "carol@example.com", "hash")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	got, err := GetUser(ctx, db, created.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "carol@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := GetUser(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
