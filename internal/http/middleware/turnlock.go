// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements per-chat turn serialization. Two concurrent turns in
// the same chat would interleave their history reads and message writes, so
// the turn endpoint holds a keyed in-process mutex for the duration of the
// request. Distinct chats proceed in parallel.
//
// The chat id lives in the JSON request body, so the middleware peeks at the
// body (bounded) and restores it for the handler. Requests without a parsable
// id pass through unlocked; the handler rejects them anyway.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"

	"github.com/gin-gonic/gin"
)

// maxTurnPeekBytes bounds how much of the body is read to find the chat id.
const maxTurnPeekBytes = 1 << 20

// TurnLock serializes requests per chat id. Entries are reference-counted and
// removed when the last holder releases, so the map stays bounded by the
// number of in-flight turns.
//
// This lock is process-local. A horizontally scaled deployment needs a
// distributed lock to get the same guarantee across replicas.
type TurnLock struct {
	mu    sync.Mutex
	locks map[string]*turnEntry
}

type turnEntry struct {
	mu   sync.Mutex
	refs int
}

// NewTurnLock constructs an empty TurnLock.
func NewTurnLock() *TurnLock {
	return &TurnLock{locks: make(map[string]*turnEntry)}
}

// acquire blocks until the per-key mutex is held.
func (t *TurnLock) acquire(key string) *turnEntry {
	t.mu.Lock()
	e, ok := t.locks[key]
	if !ok {
		e = &turnEntry{}
		t.locks[key] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return e
}

// release unlocks the per-key mutex and drops the entry when unreferenced.
func (t *TurnLock) release(key string, e *turnEntry) {
	e.mu.Unlock()

	t.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(t.locks, key)
	}
	t.mu.Unlock()
}

// turnIDBody is the minimal body shape needed to key the lock.
type turnIDBody struct {
	ID string `json:"id"`
}

// Handler returns a middleware that serializes requests sharing a chat id.
//
// The request body is read up to maxTurnPeekBytes to extract the "id" field
// and then restored so downstream binding sees the original payload.
func (t *TurnLock) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTurnPeekBytes))
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var peek turnIDBody
		if err := json.Unmarshal(body, &peek); err != nil || peek.ID == "" {
			c.Next()
			return
		}

		e := t.acquire(peek.ID)
		defer t.release(peek.ID, e)
		c.Next()
	}
}
