// Aggregator (Plaid) HTTP handlers.
//
// This file exposes the financial-link endpoints:
//   - POST /plaid/create-link-token  (boot the link widget)
//   - POST /plaid/exchange           (public token → stored credentials)
//   - POST /plaid/transactions      (sync + return mirrored transactions)
//   - POST /plaid/webhook           (aggregator webhook relay, auth-exempt)
//   - GET  /plaid/status            (link + backfill readiness)
//
// The webhook endpoint acknowledges everything it can parse with 200 so the
// aggregator never retries storms against us; only a malformed body is a 400.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finchat/go-finance-chat-backend/internal/http/middleware"
)

//
// DTOs
//

// ExchangeTokenRequest carries the public token produced by the link widget.
type ExchangeTokenRequest struct {
	PublicToken string `json:"public_token" binding:"required"`
}

// SyncTransactionsRequest identifies the link to sync by aggregator item id.
type SyncTransactionsRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// WebhookRequest is the subset of the aggregator's webhook payload we act on.
type WebhookRequest struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}

// CreateLinkToken godoc
// @ID          createLinkToken
// @Summary     Create a link token
// @Description Issues a short-lived token that initializes the account-linking widget.
// @Tags        Plaid
// @Produce     json
//
// @Success     200  {object} map[string]string
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Link token creation failed"
// @Router      /plaid/create-link-token [post]
func (h *Handlers) CreateLinkToken(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}

	token, err := h.financeSvc.CreateLinkToken(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeLinkFailed, "could not create link token")
		return
	}
	ok(c, http.StatusOK, gin.H{"link_token": token})
}

// ExchangePublicToken godoc
// @ID          exchangePublicToken
// @Summary     Exchange a public token
// @Description Trades the widget's public token for durable credentials and stores them for the user.
// @Tags        Plaid
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ExchangeTokenRequest  true  "Exchange payload"
//
// @Success     200  {object} map[string]any
// @Failure     400  {object} handlers.ErrorResponse "Missing public_token"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Exchange failed"
// @Router      /plaid/exchange [post]
func (h *Handlers) ExchangePublicToken(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}

	var req ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "public_token required")
		return
	}

	itemID, err := h.financeSvc.ExchangeToken(c.Request.Context(), uid, req.PublicToken)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExchangeFailed, "token exchange failed")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "item_id": itemID})
}

// SyncTransactions godoc
// @ID          syncTransactions
// @Summary     Sync transactions for an item
// @Description Mirrors the trailing 30 days of transactions for the given aggregator item and returns them.
// @Tags        Plaid
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SyncTransactionsRequest  true  "Sync payload"
//
// @Success     200  {object} map[string]any
// @Failure     400  {object} handlers.ErrorResponse "Missing item_id"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Unknown item"
// @Failure     500  {object} handlers.ErrorResponse "Sync failed"
// @Router      /plaid/transactions [post]
func (h *Handlers) SyncTransactions(c *gin.Context) {
	if _, okUser := requireUser(c); !okUser {
		return
	}

	var req SyncTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id required")
		return
	}

	txs, err := h.financeSvc.SyncByItem(c.Request.Context(), req.ItemID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "transactions": txs})
}

// PlaidWebhook godoc
// @ID          plaidWebhook
// @Summary     Aggregator webhook relay
// @Description Receives aggregator webhooks. Transaction backfill events trigger a sync; everything else is acknowledged.
// @Tags        Plaid
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.WebhookRequest  true  "Webhook payload"
//
// @Success     200  {object} map[string]bool
// @Failure     400  {object} handlers.ErrorResponse "Malformed body"
// @Router      /plaid/webhook [post]
func (h *Handlers) PlaidWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.financeSvc.HandleWebhook(c.Request.Context(), req.WebhookType, req.WebhookCode, req.ItemID); err != nil {
		// Still a 200: the aggregator retries on errors and the failure is
		// ours to resolve, not theirs. Log and acknowledge.
		middleware.LoggerFrom(c).Error().
			Err(err).
			Str("webhook_type", req.WebhookType).
			Str("webhook_code", req.WebhookCode).
			Msg("webhook processing failed")
	}
	ok(c, http.StatusOK, gin.H{"received": true})
}

// LinkStatus godoc
// @ID          linkStatus
// @Summary     Financial link status
// @Description Reports whether the user has a linked account and whether its transaction backfill completed.
// @Tags        Plaid
// @Produce     json
//
// @Success     200  {object} services.LinkStatus
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /plaid/status [get]
func (h *Handlers) LinkStatus(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}

	st, err := h.financeSvc.Status(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}
