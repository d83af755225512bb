// Package services – FinanceService
//
// This file implements the financial-data use-cases: initializing the link
// widget, exchanging the public token for durable credentials, mirroring
// recent transactions, and reacting to aggregator webhooks. Transaction
// ingestion is idempotent end to end — re-running a sync over an overlapping
// window never duplicates rows.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/finchat/go-finance-chat-backend/internal/aggregator"
	"github.com/finchat/go-finance-chat-backend/internal/domain"
	"github.com/finchat/go-finance-chat-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Webhook type/code constants from the aggregator's transactions product.
const (
	WebhookTypeTransactions       = "TRANSACTIONS"
	WebhookCodeInitialUpdate      = "INITIAL_UPDATE"
	WebhookCodeHistoricalUpdate   = "HISTORICAL_UPDATE"
	WebhookCodeDefaultUpdate      = "DEFAULT_UPDATE"
	WebhookCodeTransactionsRemove = "TRANSACTIONS_REMOVED"
)

// FinanceService owns the aggregator link lifecycle and the transaction
// mirror.
type FinanceService struct {
	DB         *gorm.DB
	Aggregator aggregator.Client

	// Now is injectable for deterministic sync windows in tests.
	Now func() time.Time
}

// LinkStatus summarizes a user's aggregator link for the status endpoint.
type LinkStatus struct {
	Linked            bool   `json:"linked"`
	ItemID            string `json:"item_id,omitempty"`
	TransactionsReady bool   `json:"transactions_ready"`
}

func (s *FinanceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateLinkToken issues a link token that boots the link widget for userID.
func (s *FinanceService) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	tr := otel.Tracer("services/FinanceService")
	ctx, span := tr.Start(ctx, "CreateLinkToken",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return s.Aggregator.CreateLinkToken(ctx, userID)
}

// ExchangeToken trades the widget's public token for durable credentials,
// stores them, and returns the aggregator item id. Relinking overwrites the
// previous institution and resets the readiness flag until the aggregator's
// backfill webhook arrives.
func (s *FinanceService) ExchangeToken(ctx context.Context, userID, publicToken string) (string, error) {
	tr := otel.Tracer("services/FinanceService")
	ctx, span := tr.Start(ctx, "ExchangeToken",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	item, err := s.Aggregator.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return "", err
	}
	if err := repo.UpsertFinancialLink(ctx, s.DB, userID, item.AccessToken, item.ItemID); err != nil {
		return "", err
	}
	return item.ItemID, nil
}

// SyncTransactions mirrors the user's last 30 days of transactions and marks
// the link ready. Returns the number of newly stored rows.
func (s *FinanceService) SyncTransactions(ctx context.Context, userID string) (int, error) {
	tr := otel.Tracer("services/FinanceService")
	ctx, span := tr.Start(ctx, "SyncTransactions",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	link, err := repo.GetLinkByUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrLinkNotFound
		}
		return 0, err
	}
	return s.syncLink(ctx, link)
}

// syncReturnLimit caps how many mirrored rows the item-keyed sync returns.
const syncReturnLimit = 50

// SyncByItem mirrors the trailing window for the link identified by itemID
// and returns the newest mirrored transactions (capped). Unknown item ids
// map to ErrLinkNotFound.
func (s *FinanceService) SyncByItem(ctx context.Context, itemID string) ([]domain.Transaction, error) {
	tr := otel.Tracer("services/FinanceService")
	ctx, span := tr.Start(ctx, "SyncByItem",
		trace.WithAttributes(attribute.String("item.id", itemID)),
	)
	defer span.End()

	link, err := repo.GetLinkByItemID(ctx, s.DB, itemID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	if _, err := s.syncLink(ctx, link); err != nil {
		return nil, err
	}
	return repo.ListRecentTransactions(ctx, s.DB, link.UserID, syncReturnLimit)
}

// HandleWebhook processes an aggregator webhook. Transaction backfill events
// mark the item ready and trigger a sync for the owning user; everything
// else is acknowledged and dropped.
func (s *FinanceService) HandleWebhook(ctx context.Context, webhookType, webhookCode, itemID string) error {
	tr := otel.Tracer("services/FinanceService")
	ctx, span := tr.Start(ctx, "HandleWebhook",
		trace.WithAttributes(
			attribute.String("webhook.type", webhookType),
			attribute.String("webhook.code", webhookCode),
		),
	)
	defer span.End()

	if webhookType != WebhookTypeTransactions {
		return nil
	}
	switch webhookCode {
	case WebhookCodeInitialUpdate, WebhookCodeHistoricalUpdate, WebhookCodeDefaultUpdate:
	default:
		return nil
	}

	link, err := repo.GetLinkByItemID(ctx, s.DB, itemID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnknownItem
		}
		return err
	}
	if err := repo.MarkTransactionsReady(ctx, s.DB, itemID); err != nil {
		return err
	}
	_, err = s.syncLink(ctx, link)
	return err
}

// RecentTransactions returns the newest mirrored transactions for userID.
func (s *FinanceService) RecentTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	tr := otel.Tracer("services/FinanceService")
	ctx, span := tr.Start(ctx, "RecentTransactions",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return repo.ListRecentTransactions(ctx, s.DB, userID, limit)
}

// Status reports whether the user has a link and whether its backfill has
// completed.
func (s *FinanceService) Status(ctx context.Context, userID string) (LinkStatus, error) {
	tr := otel.Tracer("services/FinanceService")
	ctx, span := tr.Start(ctx, "Status",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	link, err := repo.GetLinkByUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return LinkStatus{}, nil
		}
		return LinkStatus{}, err
	}
	return LinkStatus{
		Linked:            true,
		ItemID:            link.ItemID,
		TransactionsReady: link.TransactionsReady,
	}, nil
}

func (s *FinanceService) syncLink(ctx context.Context, link *domain.FinancialLink) (int, error) {
	start, end := aggregator.SyncRange(s.now())
	fetched, err := s.Aggregator.FetchTransactions(ctx, link.AccessToken, start, end)
	if err != nil {
		return 0, err
	}
	if len(fetched) == 0 {
		return 0, nil
	}

	before, err := s.countTransactions(ctx, link.UserID)
	if err != nil {
		return 0, err
	}

	rows := make([]domain.Transaction, 0, len(fetched))
	for _, tx := range fetched {
		rows = append(rows, domain.Transaction{
			TransactionID: tx.ID,
			UserID:        link.UserID,
			Name:          tx.Name,
			Amount:        tx.Amount,
			Date:          tx.Date,
			Category:      tx.Category,
		})
	}
	if err := repo.InsertTransactions(ctx, s.DB, rows); err != nil {
		return 0, err
	}

	after, err := s.countTransactions(ctx, link.UserID)
	if err != nil {
		return 0, err
	}
	return int(after - before), nil
}

func (s *FinanceService) countTransactions(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
