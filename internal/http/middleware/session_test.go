package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newSessionRouter(parse SessionParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(parse))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UserIDFrom(c))
	})
	return r
}

func okParser(token string) (string, error) {
	if token == "good-token" {
		return "user-42", nil
	}
	return "", errors.New("bad token")
}

func TestSession_ValidToken(t *testing.T) {
	r := newSessionRouter(okParser)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "user-42" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestSession_SchemeCaseInsensitive(t *testing.T) {
	r := newSessionRouter(okParser)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("lowercase scheme rejected: %d", w.Code)
	}
}

func TestSession_MissingOrMalformedHeader(t *testing.T) {
	r := newSessionRouter(okParser)

	for _, header := range []string{"", "good-token", "Basic Zm9vOmJhcg=="} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: got %d, want 401", header, w.Code)
		}
		if got := w.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Bearer") {
			t.Fatalf("missing WWW-Authenticate challenge, got %q", got)
		}
		if !strings.Contains(w.Body.String(), `"unauthorized"`) {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	}
}

func TestSession_InvalidToken(t *testing.T) {
	r := newSessionRouter(okParser)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestUserIDFrom_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := UserIDFrom(c); got != "" {
		t.Fatalf("expected empty user id, got %q", got)
	}
}
