package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/finchat/go-finance-chat-backend/internal/domain"
	"github.com/finchat/go-finance-chat-backend/internal/services"
)

func TestGetHistory_ReturnsPage(t *testing.T) {
	f := newFixture()
	f.chat.chats = []domain.Chat{
		{ID: "c2", UserID: "alice", Title: "Second", CreatedAt: time.Now().UTC()},
		{ID: "c1", UserID: "alice", Title: "First", CreatedAt: time.Now().UTC().Add(-time.Hour)},
	}
	f.chat.total = 2

	w := perform(http.MethodGet, "/history?page=1&page_size=20", f.h.GetHistory, "", asUser("alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var resp HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(resp.Chats) != 2 || resp.Chats[0].ID != "c2" {
		t.Fatalf("unexpected chats: %+v", resp.Chats)
	}
	if resp.Pagination.Total != 2 || resp.Pagination.TotalPages != 1 || resp.Pagination.HasNext {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}
	if f.chat.gotUserID != "alice" {
		t.Fatalf("user not forwarded: %q", f.chat.gotUserID)
	}
}

func TestGetHistory_Unauthenticated(t *testing.T) {
	f := newFixture()
	w := perform(http.MethodGet, "/history", f.h.GetHistory, "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestGetHistory_ServiceError(t *testing.T) {
	f := newFixture()
	f.chat.err = services.ErrChatNotFound // any failure maps to list_failed here
	w := perform(http.MethodGet, "/history", f.h.GetHistory, "", asUser("alice"))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), `"list_failed"`) {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestListChatMessages(t *testing.T) {
	f := newFixture()
	f.chat.messages = []domain.Message{
		{ID: "m1", ChatID: "c1", Role: domain.RoleUser, Content: "hi"},
		{ID: "m2", ChatID: "c1", Role: domain.RoleAssistant, Content: "hello"},
	}
	f.chat.total = 2

	w := perform(http.MethodGet, "/chat/c1/messages", f.h.ListChatMessages, "", asUser("alice"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var resp MessagesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(resp.Messages) != 2 || resp.Messages[0].ID != "m1" {
		t.Fatalf("unexpected messages: %+v", resp.Messages)
	}
	if f.chat.gotChatID != "c1" {
		t.Fatalf("chat id not forwarded: %q", f.chat.gotChatID)
	}
}

func TestListChatMessages_VisibilityErrors(t *testing.T) {
	f := newFixture()
	f.chat.err = services.ErrChatForbidden
	w := perform(http.MethodGet, "/chat/c1/messages", f.h.ListChatMessages, "", asUser("bob"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("private chat: got %d, want 401", w.Code)
	}

	f = newFixture()
	f.chat.err = services.ErrChatNotFound
	w = perform(http.MethodGet, "/chat/missing/messages", f.h.ListChatMessages, "", asUser("bob"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing chat: got %d, want 404", w.Code)
	}
}

func TestUpdateChatVisibility(t *testing.T) {
	f := newFixture()

	w := perform(http.MethodPatch, "/chat/c1/visibility", f.h.UpdateChatVisibility,
		`{"visibility":"public"}`, asUser("alice"))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if f.chat.gotChatID != "c1" || f.chat.gotVisibility != "public" {
		t.Fatalf("update not forwarded: chat=%q visibility=%q", f.chat.gotChatID, f.chat.gotVisibility)
	}
}

func TestUpdateChatVisibility_Errors(t *testing.T) {
	// Missing body.
	f := newFixture()
	w := perform(http.MethodPatch, "/chat/c1/visibility", f.h.UpdateChatVisibility, "", asUser("alice"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty body: got %d", w.Code)
	}

	// Service rejects the value.
	f = newFixture()
	f.chat.err = services.ErrInvalidVisibility
	w = perform(http.MethodPatch, "/chat/c1/visibility", f.h.UpdateChatVisibility,
		`{"visibility":"sorta"}`, asUser("alice"))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"bad_request"`) {
		t.Fatalf("invalid value: got %d %s", w.Code, w.Body.String())
	}

	// Non-owner.
	f = newFixture()
	f.chat.err = services.ErrChatNotFound
	w = perform(http.MethodPatch, "/chat/c1/visibility", f.h.UpdateChatVisibility,
		`{"visibility":"private"}`, asUser("bob"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-owner: got %d", w.Code)
	}
}
