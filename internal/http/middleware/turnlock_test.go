package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTurnLock_SerializesSameChat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tl := NewTurnLock()

	var inFlight, maxInFlight int32
	r := gin.New()
	r.Use(tl.Handler())
	r.POST("/chat", func(c *gin.Context) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"id":"chat-1"}`))
			r.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&maxInFlight); got != 1 {
		t.Fatalf("same-chat concurrency = %d, want 1", got)
	}
}

func TestTurnLock_DistinctChatsRunConcurrently(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tl := NewTurnLock()

	release := make(chan struct{})
	entered := make(chan string, 2)
	r := gin.New()
	r.Use(tl.Handler())
	r.POST("/chat", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		entered <- string(body)
		<-release
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"id":"`+id+`"}`))
			r.ServeHTTP(httptest.NewRecorder(), req)
		}(id)
	}

	// Both handlers must be inside simultaneously.
	for i := 0; i < 2; i++ {
		select {
		case <-entered:
		case <-time.After(2 * time.Second):
			t.Fatal("distinct chats blocked each other")
		}
	}
	close(release)
	wg.Wait()
}

func TestTurnLock_BodyRestoredForHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tl := NewTurnLock()

	var got string
	r := gin.New()
	r.Use(tl.Handler())
	r.POST("/chat", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		got = string(b)
		c.Status(http.StatusOK)
	})

	payload := `{"id":"chat-1","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(payload))
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got != payload {
		t.Fatalf("handler saw %q, want %q", got, payload)
	}
}

func TestTurnLock_UnparsableBodyPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tl := NewTurnLock()

	r := gin.New()
	r.Use(tl.Handler())
	r.POST("/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, body := range []string{"", "not json", `{"no_id":true}`} {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("body %q: got %d", body, w.Code)
		}
	}
}

func TestTurnLock_EntriesEvictedWhenIdle(t *testing.T) {
	tl := NewTurnLock()

	e := tl.acquire("chat-1")
	tl.release("chat-1", e)

	tl.mu.Lock()
	n := len(tl.locks)
	tl.mu.Unlock()
	if n != 0 {
		t.Fatalf("lock map holds %d entries after release, want 0", n)
	}
}
