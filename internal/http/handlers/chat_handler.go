// Chat HTTP handlers.
//
// This file exposes REST endpoints for browsing and managing chats:
//   - GET   /history                 (paginated chat list, weak ETag support)
//   - GET   /chat/{id}/messages      (paginated messages, weak ETag support)
//   - PATCH /chat/{id}/visibility    (owner-only private/public switch)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
	"github.com/finchat/go-finance-chat-backend/internal/repo"
	"github.com/finchat/go-finance-chat-backend/internal/services"
)

//
// DTOs
//

// UpdateVisibilityRequest is the JSON payload for changing chat visibility.
type UpdateVisibilityRequest struct {
	// Visibility is "private" or "public".
	Visibility string `json:"visibility" binding:"required" example:"public"`
}

// HistoryResponse wraps a page of chats and pagination information.
type HistoryResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

// MessagesResponse wraps a page of messages and pagination information.
type MessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// statsDB exposes the underlying GORM handle when the chat service is the
// concrete implementation, enabling the cheap ETag pre-check. Interface-only
// fakes simply skip the conditional path.
func (h *Handlers) statsDB() *gorm.DB {
	if svc, ok := h.chatSvc.(*services.ChatService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// GetHistory godoc
// @ID          getHistory
// @Summary     List the user's chats (paginated)
// @Description Returns a page of the user's chats, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chat
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.HistoryResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /history [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.statsDB(); db != nil {
		count, maxTS, err := repo.ChatsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"chats:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.chatSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, HistoryResponse{
		Chats:      items,
		Pagination: paginate(page, pageSize, total),
	})
}

// ListChatMessages godoc
// @ID          listChatMessages
// @Summary     List a chat's messages (paginated)
// @Description Returns a page of messages, oldest first. Private chats are visible to their owner only.
// @Tags        Chat
// @Produce     json
//
// @Param       id             path    string  true  "Chat ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.MessagesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat/{id}/messages [get]
func (h *Handlers) ListChatMessages(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	chatID := c.Param("id")
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	items, total, err := h.chatSvc.MessagesPage(ctx, uid, chatID, page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}

	// ETag after the visibility check so private metadata never leaks.
	if db := h.statsDB(); db != nil {
		count, maxTS, serr := repo.MessagesStats(ctx, db, chatID)
		if serr == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, chatID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	ok(c, http.StatusOK, MessagesResponse{
		Messages:   items,
		Pagination: paginate(page, pageSize, total),
	})
}

// UpdateChatVisibility godoc
// @ID          updateChatVisibility
// @Summary     Change chat visibility
// @Description Switches a chat between private and public. Owner only.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Chat ID"
// @Param       body  body  handlers.UpdateVisibilityRequest  true  "New visibility"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat/{id}/visibility [patch]
func (h *Handlers) UpdateChatVisibility(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	chatID := c.Param("id")

	var req UpdateVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Visibility) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "visibility required")
		return
	}

	if err := h.chatSvc.UpdateVisibility(c.Request.Context(), uid, chatID, strings.TrimSpace(req.Visibility)); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}
