package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLineClient(t *testing.T, handler http.Handler) (*LineClient, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	c := NewLineClient("test-token", srv.URL, srv.URL, 5*time.Second, 5*time.Second, 100, 100, &logger)

	return c, srv
}

func TestLineClient_Reply(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	c, _ := newTestLineClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.Reply(context.Background(), "tok-1", "hello"))

	assert.Equal(t, "/v2/bot/message/reply", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "tok-1", gotBody["replyToken"])
}

func TestLineClient_ReplyTokenReuseFailsLocally(t *testing.T) {
	var calls int32

	c, _ := newTestLineClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.Reply(context.Background(), "tok-1", "first"))

	err := c.Reply(context.Background(), "tok-1", "second")
	require.ErrorIs(t, err, ErrReplyTokenUsed)

	// The second attempt never reaches the wire.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLineClient_Push(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	c, _ := newTestLineClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.Push(context.Background(), "U1", "result"))
	require.NoError(t, c.Push(context.Background(), "U1", "again"))

	assert.Equal(t, "/v2/bot/message/push", gotPath)
	assert.Equal(t, "U1", gotBody["to"])
}

func TestLineClient_PushNon2xx(t *testing.T) {
	c, _ := newTestLineClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	err := c.Push(context.Background(), "U1", "result")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestLineClient_FetchContent(t *testing.T) {
	c, _ := newTestLineClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/m1/content", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))

	data, err := c.FetchContent(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestLineClient_FetchContentNon2xx(t *testing.T) {
	c, _ := newTestLineClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.FetchContent(context.Background(), "m1")
	require.Error(t, err)
}

func TestLineClient_NotConfigured(t *testing.T) {
	logger := zerolog.Nop()
	c := NewLineClient("", "http://unused", "http://unused", time.Second, time.Second, 1, 1, &logger)

	assert.ErrorIs(t, c.Reply(context.Background(), "tok", "x"), ErrNotConfigured)
	assert.ErrorIs(t, c.Push(context.Background(), "U1", "x"), ErrNotConfigured)

	_, err := c.FetchContent(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
