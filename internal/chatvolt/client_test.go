package chatvolt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/", "key")
	c.maxElapsed = 3 * time.Second
	return c
}

func TestConfigured(t *testing.T) {
	assert.True(t, New("https://api.chatvolt.ai", "k").Configured())
	assert.False(t, New("https://api.chatvolt.ai", "").Configured())
	var nilClient *Client
	assert.False(t, nilClient.Configured())

	_, err := New("", "").GetConversation(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGetConversationMessages(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversation/abc/messages", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"from": "human", "text": "oi"}, {"from": "agent", "text": "olá"}]`))
	})

	msgs, err := c.GetConversationMessages(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "oi", msgs[0]["text"])
}

func TestGetAgent(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/ag1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "ag1", "name": "Vendas"}`))
	})

	a, err := c.GetAgent(context.Background(), "ag1")
	require.NoError(t, err)
	assert.Equal(t, "Vendas", a["name"])
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id": "abc"}`))
	})

	conv, err := c.GetConversation(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", conv["id"])
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClientErrorIsPermanent(t *testing.T) {
	var calls int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "not found"}`))
	})

	_, err := c.GetConversation(context.Background(), "nope")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSetConversationVariable_Truncates(t *testing.T) {
	var got map[string]string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/variables", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	out, err := c.SetConversationVariable(context.Background(), "abc", strings.Repeat("n", 30), strings.Repeat("ç", 150))
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "abc", got["conversationId"])
	assert.Equal(t, strings.Repeat("n", 20), got["varName"])
	assert.Equal(t, strings.Repeat("ç", 100), got["varValue"])
}

func TestIDsArePathEscaped(t *testing.T) {
	var paths []string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	_, err := c.GetConversation(ctx, "a/b?c")
	require.NoError(t, err)
	_, err = c.GetAgent(ctx, "../x")
	require.NoError(t, err)

	assert.Equal(t, []string{"/conversation/a%2Fb%3Fc", "/agents/..%2Fx"}, paths)
}
