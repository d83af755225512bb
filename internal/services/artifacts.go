package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/finchat/go-finance-chat-backend/internal/ai"
	"github.com/finchat/go-finance-chat-backend/internal/domain"
	"github.com/finchat/go-finance-chat-backend/internal/repo"
)

// userArtifacts implements ai.ArtifactStore scoped to one user, so tool
// calls can only touch that user's documents.
type userArtifacts struct {
	db     *gorm.DB
	userID string
}

var _ ai.ArtifactStore = (*userArtifacts)(nil)

func (a *userArtifacts) CreateDocument(ctx context.Context, id, title, content, kind string) error {
	_, err := repo.CreateDocument(ctx, a.db, id, a.userID, title, content, kind)
	return err
}

func (a *userArtifacts) GetDocument(ctx context.Context, id string) (string, string, error) {
	d, err := repo.GetDocument(ctx, a.db, id, a.userID)
	if err != nil {
		return "", "", err
	}
	return d.Title, d.Content, nil
}

func (a *userArtifacts) UpdateDocument(ctx context.Context, id, content string) error {
	return repo.UpdateDocumentContent(ctx, a.db, id, a.userID, content)
}

func (a *userArtifacts) SaveSuggestions(ctx context.Context, documentID string, items []ai.SuggestionItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]domain.Suggestion, 0, len(items))
	for _, it := range items {
		rows = append(rows, domain.Suggestion{
			DocumentID:    documentID,
			OriginalText:  it.OriginalText,
			SuggestedText: it.SuggestedText,
			Description:   it.Description,
		})
	}
	return repo.CreateSuggestions(ctx, a.db, rows)
}
