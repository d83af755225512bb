// Vote HTTP handlers.
//
// This file exposes the message-vote endpoints:
//   - GET   /vote?chatId=   (list votes in a chat the user owns)
//   - PATCH /vote           (cast or flip an up/down vote)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CastVoteRequest is the JSON payload for rating an assistant message.
type CastVoteRequest struct {
	ChatID    string `json:"chatId" binding:"required"`
	MessageID string `json:"messageId" binding:"required"`
	// Type is "up" or "down".
	Type string `json:"type" binding:"required" example:"up"`
}

// ListVotes godoc
// @ID          listVotes
// @Summary     List votes in a chat
// @Description Returns all votes recorded in a chat the current user owns.
// @Tags        Votes
// @Produce     json
//
// @Param       chatId  query  string  true  "Chat ID"
//
// @Success     200  {array}  domain.Vote
// @Failure     400  {object} handlers.ErrorResponse "Missing chatId"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /vote [get]
func (h *Handlers) ListVotes(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}
	chatID := strings.TrimSpace(c.Query("chatId"))
	if chatID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chatId query parameter required")
		return
	}

	votes, err := h.voteSvc.List(c.Request.Context(), uid, chatID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, votes)
}

// CastVote godoc
// @ID          castVote
// @Summary     Vote on an assistant message
// @Description Casts an up/down vote. Re-voting flips the stored direction.
// @Tags        Votes
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CastVoteRequest  true  "Vote payload"
//
// @Success     200  {object} map[string]bool
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Message not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /vote [patch]
func (h *Handlers) CastVote(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	var isUpvoted bool
	switch req.Type {
	case "up":
		isUpvoted = true
	case "down":
		isUpvoted = false
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `type must be "up" or "down"`)
		return
	}

	if err := h.voteSvc.Cast(c.Request.Context(), uid, req.MessageID, isUpvoted); err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true})
}
