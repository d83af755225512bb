// Turn HTTP handlers.
//
// This file exposes the conversation turn endpoint and chat deletion:
//   - POST   /chat        (run a turn, SSE event stream)
//   - DELETE /chat?id=    (delete a chat with its messages and votes)
//
// The turn endpoint answers with plain JSON errors while the pre-stream phase
// can still fail; once the event stream starts, failures travel in-band as
// error events.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/finchat/go-finance-chat-backend/internal/ai"
	"github.com/finchat/go-finance-chat-backend/internal/http/middleware"
	"github.com/finchat/go-finance-chat-backend/internal/services"
)

// TurnMessage is one entry of the client-supplied conversation history.
type TurnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequestBody is the JSON payload for POST /chat.
//
// Clients either send the full history in Messages (the newest user entry is
// answered) or just Message. SelectedChatModel picks the public model variant;
// empty selects the default.
type TurnRequestBody struct {
	ID                string        `json:"id" binding:"required" example:"d9e7d4a1-0f4e-4f5a-9f8e-0a1b2c3d4e5f"`
	Message           string        `json:"message,omitempty"`
	Messages          []TurnMessage `json:"messages,omitempty"`
	SelectedChatModel string        `json:"selectedChatModel,omitempty" example:"chat-model-small"`
}

// latestUserMessage returns the text the turn should answer: Message when
// set, otherwise the newest "user" entry of Messages.
func (b *TurnRequestBody) latestUserMessage() string {
	if m := strings.TrimSpace(b.Message); m != "" {
		return m
	}
	for i := len(b.Messages) - 1; i >= 0; i-- {
		if b.Messages[i].Role == "user" {
			if m := strings.TrimSpace(b.Messages[i].Content); m != "" {
				return m
			}
		}
	}
	return ""
}

// PostTurn godoc
// @ID          postTurn
// @Summary     Run a conversation turn
// @Description Streams the assistant's reply as Server-Sent Events. Creates the chat on first contact.
// @Tags        Chat
// @Accept      json
// @Produce     text/event-stream
//
// @Param       body  body  handlers.TurnRequestBody  true  "Turn payload"
//
// @Success     200  {string} string "SSE stream of turn events"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat [post]
func (h *Handlers) PostTurn(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}

	var body TurnRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	message := body.latestUserMessage()
	if message == "" {
		failFromService(c, services.ErrNoUserMessage)
		return
	}

	ctx := c.Request.Context()
	prep, err := h.turnSvc.Prepare(ctx, services.TurnInput{
		UserID:  uid,
		ChatID:  body.ID,
		Message: message,
		Variant: body.SelectedChatModel,
	})
	if err != nil {
		failFromService(c, err)
		return
	}

	// From here on the transport is an event stream; errors travel in-band.
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	emit := func(ev ai.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		if _, err := c.Writer.Write([]byte("data: ")); err != nil {
			return
		}
		_, _ = c.Writer.Write(payload)
		_, _ = c.Writer.Write([]byte("\n\n"))
		c.Writer.Flush()
	}

	if err := h.turnSvc.Stream(ctx, prep, emit); err != nil {
		// The fixed error event already went out; log the cause and end.
		middleware.LoggerFrom(c).Error().
			Err(err).
			Str("chat_id", body.ID).
			Msg("turn stream failed")
	}
}

// DeleteChat godoc
// @ID          deleteChat
// @Summary     Delete a chat
// @Description Deletes a chat owned by the current user, including its messages and votes.
// @Tags        Chat
// @Produce     json
//
// @Param       id  query  string  true  "Chat ID"
//
// @Success     200  {object} map[string]bool
// @Failure     400  {object} handlers.ErrorResponse "Missing id"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat [delete]
func (h *Handlers) DeleteChat(c *gin.Context) {
	uid, okUser := requireUser(c)
	if !okUser {
		return
	}

	chatID := strings.TrimSpace(c.Query("id"))
	if chatID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id query parameter required")
		return
	}

	if err := h.chatSvc.Delete(c.Request.Context(), uid, chatID); err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}
