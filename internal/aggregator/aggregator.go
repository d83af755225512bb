// Package aggregator integrates the financial-data aggregator: link-token
// issuance, public-token exchange, and transaction retrieval. The Client
// interface keeps the services layer independent of the concrete SDK so tests
// can substitute fakes.
package aggregator

import (
	"context"
	"time"
)

// LinkedItem is the durable credential pair returned by a successful
// public-token exchange.
type LinkedItem struct {
	AccessToken string
	ItemID      string
}

// Tx is one transaction as reported by the aggregator, reduced to the fields
// the application mirrors.
type Tx struct {
	ID       string
	Name     string
	Amount   float64
	Date     string // YYYY-MM-DD
	Category string
}

// Client is the aggregator boundary used by the services layer.
type Client interface {
	// CreateLinkToken issues a short-lived token that initializes the link
	// widget for the given user.
	CreateLinkToken(ctx context.Context, userID string) (string, error)

	// ExchangePublicToken trades the widget's public token for durable
	// credentials.
	ExchangePublicToken(ctx context.Context, publicToken string) (LinkedItem, error)

	// FetchTransactions returns all transactions between start and end
	// (inclusive), following the aggregator's pagination.
	FetchTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]Tx, error)
}

// SyncWindow is how far back the initial transaction mirror reaches.
const SyncWindow = 30 * 24 * time.Hour

// SyncRange returns the [start, end] dates for an initial sync anchored at
// now.
func SyncRange(now time.Time) (start, end time.Time) {
	return now.Add(-SyncWindow), now
}
