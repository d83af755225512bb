// Package handlers provides HTTP handler implementations for the public API.
//
// This file wires the handler set to the application services. Handlers are
// transport-thin: they validate input, call services, and translate sentinel
// errors into the stable error envelope (see errors.go / response.go).
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finchat/go-finance-chat-backend/internal/ai"
	"github.com/finchat/go-finance-chat-backend/internal/domain"
	"github.com/finchat/go-finance-chat-backend/internal/http/middleware"
	"github.com/finchat/go-finance-chat-backend/internal/services"
	"github.com/finchat/go-finance-chat-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// TurnService runs a full conversation turn: the pre-stream phase that can
// still fail with a plain HTTP status, then the streaming phase.
type TurnService interface {
	Prepare(ctx context.Context, in services.TurnInput) (*services.PreparedTurn, error)
	Stream(ctx context.Context, prep *services.PreparedTurn, emit ai.Emitter) error
}

// ChatService covers the chat lifecycle outside the turn itself.
type ChatService interface {
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error)
	MessagesPage(ctx context.Context, userID, chatID string, page, pageSize int) ([]domain.Message, int64, error)
	UpdateVisibility(ctx context.Context, userID, chatID, visibility string) error
	Delete(ctx context.Context, userID, chatID string) error
}

// VoteService records up/down ratings of assistant messages.
type VoteService interface {
	Cast(ctx context.Context, userID, messageID string, isUpvoted bool) error
	List(ctx context.Context, userID, chatID string) ([]domain.Vote, error)
}

// FinanceService owns the aggregator link lifecycle and transaction mirror.
type FinanceService interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangeToken(ctx context.Context, userID, publicToken string) (string, error)
	SyncByItem(ctx context.Context, itemID string) ([]domain.Transaction, error)
	HandleWebhook(ctx context.Context, webhookType, webhookCode, itemID string) error
	Status(ctx context.Context, userID string) (services.LinkStatus, error)
}

// AuthService creates accounts and issues session tokens.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints and their service dependencies.
type Handlers struct {
	turnSvc    TurnService
	chatSvc    ChatService
	voteSvc    VoteService
	financeSvc FinanceService
	authSvc    AuthService
}

// New constructs a Handlers instance bound to the given services.
func New(turnSvc TurnService, chatSvc ChatService, voteSvc VoteService, financeSvc FinanceService, authSvc AuthService) *Handlers {
	return &Handlers{
		turnSvc:    turnSvc,
		chatSvc:    chatSvc,
		voteSvc:    voteSvc,
		financeSvc: financeSvc,
		authSvc:    authSvc,
	}
}

// userID extracts the authenticated user id set by the session middleware.
// An empty result means unauthenticated; headers are never trusted here.
func userID(c *gin.Context) string {
	return middleware.UserIDFrom(c)
}

// requireUser resolves the user id or fails the request with 401.
func requireUser(c *gin.Context) (string, bool) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return "", false
	}
	return uid, true
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// paginate derives the metadata block from a page request and total count.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failFromService maps service sentinel errors to the HTTP taxonomy. Chat
// ownership violations answer 401 rather than 403, matching the product's
// original behavior.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoUserMessage),
		errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrTooLong),
		errors.Is(err, services.ErrUnknownModel),
		errors.Is(err, services.ErrInvalidVisibility):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrChatForbidden),
		errors.Is(err, services.ErrForbiddenVote):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, services.ErrChatNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrLinkNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
