// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the financial
// aggregator mirror tables: account links and transactions.
//
// Error semantics follow the rest of the package: missing rows surface as
// gorm.ErrRecordNotFound, other DB errors are propagated raw.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
)

// UpsertFinancialLink stores the durable aggregator credentials for a user.
// One link per user: an existing row is overwritten (access token, item id),
// and the readiness flag resets because the new item has not backfilled yet.
func UpsertFinancialLink(ctx context.Context, db *gorm.DB, userID, accessToken, itemID string) error {
	link := &domain.FinancialLink{
		UserID:            userID,
		AccessToken:       accessToken,
		ItemID:            itemID,
		TransactionsReady: false,
		CreatedAt:         time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "item_id", "transactions_ready", "updated_at"}),
	}).Create(link).Error
}

// GetLinkByItemID resolves a link (access token + owning user) from the
// aggregator's item identifier, as delivered by webhooks.
func GetLinkByItemID(ctx context.Context, db *gorm.DB, itemID string) (*domain.FinancialLink, error) {
	var link domain.FinancialLink
	if err := db.WithContext(ctx).Where("item_id = ?", itemID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// GetLinkByUser fetches the link owned by userID.
func GetLinkByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.FinancialLink, error) {
	var link domain.FinancialLink
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// MarkTransactionsReady flips the readiness flag for the link matching
// itemID. Returns ErrNotFound when no such item is linked.
func MarkTransactionsReady(ctx context.Context, db *gorm.DB, itemID string) error {
	res := db.WithContext(ctx).
		Model(&domain.FinancialLink{}).
		Where("item_id = ?", itemID).
		Update("transactions_ready", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InsertTransactions idempotently stores a batch of mirrored transactions.
// Rows whose external transaction ID already exists are skipped (ON CONFLICT
// DO NOTHING), so re-running an overlapping fetch window never duplicates.
func InsertTransactions(ctx context.Context, db *gorm.DB, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range txs {
		if txs[i].CreatedAt.IsZero() {
			txs[i].CreatedAt = now
		}
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(&txs).Error
}

// ListRecentTransactions returns up to limit transactions for userID,
// newest first (date descending, external id as tie-break for determinism).
func ListRecentTransactions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, transaction_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
