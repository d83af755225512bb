package aggregator

import (
	"context"
	"time"

	plaid "github.com/plaid/plaid-go/v31/plaid"

	"github.com/finchat/go-finance-chat-backend/internal/config"
)

const (
	dateLayout = "2006-01-02"
	pageSize   = 100
)

// PlaidClient implements Client against the Plaid API.
type PlaidClient struct {
	api *plaid.APIClient
	cfg config.PlaidConfig
}

var _ Client = (*PlaidClient)(nil)

// NewPlaidClient builds a Plaid API client from configuration.
func NewPlaidClient(cfg config.PlaidConfig) *PlaidClient {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	configuration.UseEnvironment(plaidEnvironment(cfg.Environment))
	return &PlaidClient{
		api: plaid.NewAPIClient(configuration),
		cfg: cfg,
	}
}

func plaidEnvironment(name string) plaid.Environment {
	if name == "production" {
		return plaid.Production
	}
	return plaid.Sandbox
}

// newLinkTokenRequest builds the link-token request for one user: the
// transactions and identity products, US country code, and the configured
// webhook/redirect when present.
func newLinkTokenRequest(cfg config.PlaidConfig, userID string) *plaid.LinkTokenCreateRequest {
	user := plaid.LinkTokenCreateRequestUser{ClientUserId: userID}
	req := plaid.NewLinkTokenCreateRequest(cfg.ClientName, "en", []plaid.CountryCode{plaid.COUNTRYCODE_US}, user)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS, plaid.PRODUCTS_IDENTITY})
	if cfg.WebhookURL != "" {
		req.SetWebhook(cfg.WebhookURL)
	}
	if cfg.RedirectURI != "" {
		req.SetRedirectUri(cfg.RedirectURI)
	}
	return req
}

// CreateLinkToken issues a link token scoped to the transactions and identity
// products.
func (p *PlaidClient) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	req := newLinkTokenRequest(p.cfg, userID)

	resp, _, err := p.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", err
	}
	return resp.GetLinkToken(), nil
}

// ExchangePublicToken trades the widget's public token for an access token
// and item id.
func (p *PlaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (LinkedItem, error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := p.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return LinkedItem{}, err
	}
	return LinkedItem{
		AccessToken: resp.GetAccessToken(),
		ItemID:      resp.GetItemId(),
	}, nil
}

// FetchTransactions pages through /transactions/get for the window.
func (p *PlaidClient) FetchTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]Tx, error) {
	var out []Tx
	offset := int32(0)
	for {
		req := plaid.NewTransactionsGetRequest(accessToken, start.Format(dateLayout), end.Format(dateLayout))
		req.SetOptions(plaid.TransactionsGetRequestOptions{
			Count:  plaid.PtrInt32(pageSize),
			Offset: plaid.PtrInt32(offset),
		})

		resp, _, err := p.api.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
		if err != nil {
			return nil, err
		}
		for _, tx := range resp.GetTransactions() {
			out = append(out, Tx{
				ID:       tx.GetTransactionId(),
				Name:     tx.GetName(),
				Amount:   tx.GetAmount(),
				Date:     tx.GetDate(),
				Category: txCategory(tx),
			})
		}

		offset = int32(len(out))
		if offset >= resp.GetTotalTransactions() || len(resp.GetTransactions()) == 0 {
			return out, nil
		}
	}
}

func txCategory(tx plaid.Transaction) string {
	if pfc, ok := tx.GetPersonalFinanceCategoryOk(); ok && pfc != nil {
		return pfc.GetPrimary()
	}
	return ""
}
