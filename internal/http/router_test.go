package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finchat/go-finance-chat-backend/internal/aggregator"
	"github.com/finchat/go-finance-chat-backend/internal/config"
	"github.com/finchat/go-finance-chat-backend/internal/repo"
)

// stubAggregator satisfies aggregator.Client for router-level tests.
type stubAggregator struct{}

func (stubAggregator) CreateLinkToken(context.Context, string) (string, error) {
	return "link-token", nil
}

func (stubAggregator) ExchangePublicToken(context.Context, string) (aggregator.LinkedItem, error) {
	return aggregator.LinkedItem{AccessToken: "access", ItemID: "item"}, nil
}

func (stubAggregator) FetchTransactions(context.Context, string, time.Time, time.Time) ([]aggregator.Tx, error) {
	return nil, nil
}

func newRouterDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("router_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api",
		RateRPS:     1000,
		RateBurst:   1000,
		Auth: config.AuthConfig{
			JWTSecret: "router-test-secret",
			TokenTTL:  time.Hour,
		},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newRouterDB(t), stubAggregator{}, testConfig())
	return r
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	if w := do(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("/health = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", w.Code)
	}
}

func TestRouter_FallbackEnvelopes(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"not_found"`) {
		t.Fatalf("NoRoute: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPut, "/health", "", nil)
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), `"method_not_allowed"`) {
		t.Fatalf("NoMethod: %d %s", w.Code, w.Body.String())
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/history"},
		{http.MethodDelete, "/api/chat?id=c1"},
		{http.MethodPost, "/api/plaid/create-link-token"},
		{http.MethodGet, "/api/vote?chatId=c1"},
	} {
		w := do(r, route.method, route.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token = %d, want 401", route.method, route.path, w.Code)
		}
	}
}

func TestRouter_WebhookIsAuthExempt(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/plaid/webhook",
		`{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"x"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("webhook without token = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"received":true`) {
		t.Fatalf("unexpected webhook body: %s", w.Body.String())
	}
}

func TestRouter_RegisterLoginAndUseSession(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"hunter22"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d body=%s", w.Code, w.Body.String())
	}
	var session struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil || session.Token == "" {
		t.Fatalf("bad register body: %s (%v)", w.Body.String(), err)
	}

	// Login works with the same credentials.
	w = do(r, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"hunter22"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d body=%s", w.Code, w.Body.String())
	}

	// The issued token opens the protected API.
	auth := map[string]string{"Authorization": "Bearer " + session.Token}
	w = do(r, http.MethodGet, "/api/history", "", auth)
	if w.Code != http.StatusOK {
		t.Fatalf("history with token = %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"chats"`) {
		t.Fatalf("unexpected history body: %s", w.Body.String())
	}

	// Aggregator endpoints work end to end against the stub.
	w = do(r, http.MethodPost, "/api/plaid/create-link-token", "", auth)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "link-token") {
		t.Fatalf("create-link-token = %d body=%s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodPost, "/api/plaid/exchange", `{"public_token":"public-x"}`, auth)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"item_id":"item"`) {
		t.Fatalf("exchange = %d body=%s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodGet, "/api/plaid/status", "", auth)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"linked":true`) {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestRouter_RequestIDAndCORSDefaults(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO = %q, want *", got)
	}
}
