// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for documents and
// suggestions produced by the model's tool calls.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
)

// CreateDocument inserts a document with the caller-supplied id (the tool
// allocates the id so it can be echoed into the stream before persistence).
func CreateDocument(ctx context.Context, db *gorm.DB, id, userID, title, content, kind string) (*domain.Document, error) {
	d := &domain.Document{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Content:   content,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// GetDocument fetches a document by id and owner.
func GetDocument(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Document, error) {
	var d domain.Document
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDocumentContent replaces the content of a document owned by userID.
// Returns ErrNotFound when the document is missing or owned by someone else.
func UpdateDocumentContent(ctx context.Context, db *gorm.DB, id, userID, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateSuggestions stores a batch of suggestions against a document.
func CreateSuggestions(ctx context.Context, db *gorm.DB, suggestions []domain.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range suggestions {
		if suggestions[i].ID == "" {
			suggestions[i].ID = uuid.NewString()
		}
		if suggestions[i].CreatedAt.IsZero() {
			suggestions[i].CreatedAt = now
		}
	}
	return db.WithContext(ctx).Create(&suggestions).Error
}

// ListSuggestionsByDocument returns the suggestions recorded for a document.
func ListSuggestionsByDocument(ctx context.Context, db *gorm.DB, documentID string) ([]domain.Suggestion, error) {
	var out []domain.Suggestion
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
