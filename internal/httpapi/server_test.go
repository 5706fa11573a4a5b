package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"conversation-insights-go/internal/aggregator"
	"conversation-insights-go/internal/auth"
	"conversation-insights-go/internal/chatvolt"
	"conversation-insights-go/internal/pipeline"
	"conversation-insights-go/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeDashboard struct {
	last      pipeline.Request
	refreshed string
	raw       types.RawTable
	rawErr    error
}

func (f *fakeDashboard) Run(_ context.Context, req pipeline.Request) pipeline.Result {
	f.last = req
	recs := []types.ConversationRecord{{ConversationID: "c1", Channel: "whatsapp", Status: types.StatusResolved, IsResolved: true}}
	return pipeline.Result{
		Records: recs,
		Total:   1,
		Summary: aggregator.Aggregate(recs),
		Table:   types.Table{Records: recs},
	}
}

func (f *fakeDashboard) Raw(context.Context, string) (types.RawTable, error) { return f.raw, f.rawErr }

func (f *fakeDashboard) Refresh(clientID string) int {
	f.refreshed = clientID
	return 1
}

type fakeAuth struct{ err error }

func (f fakeAuth) Authenticate(_ context.Context, clientID, token string) (auth.Tenant, error) {
	if f.err != nil {
		return auth.Tenant{}, f.err
	}
	if clientID != "acme" || token != "s3cret" {
		return auth.Tenant{}, auth.ErrInvalidToken
	}
	return auth.Tenant{ClientID: "acme", ClientName: "ACME", SheetID: "sheet-1"}, nil
}

type fakeChat struct{ err error }

func (f fakeChat) GetConversation(_ context.Context, id string) (chatvolt.Conversation, error) {
	return chatvolt.Conversation{"id": id}, f.err
}

func (f fakeChat) GetAgent(_ context.Context, id string) (chatvolt.Agent, error) {
	return chatvolt.Agent{"id": id, "name": "Vendas"}, f.err
}

func (f fakeChat) GetConversationMessages(context.Context, string) ([]chatvolt.Message, error) {
	return []chatvolt.Message{{"text": "oi"}}, f.err
}

func (f fakeChat) SetConversationVariable(_ context.Context, id, name, value string) (map[string]any, error) {
	return map[string]any{"id": id, "name": name}, f.err
}

type harness struct {
	dash     *fakeDashboard
	router   *gin.Engine
	sessions *auth.Sessions
}

func newHarness(mod func(*Deps)) harness {
	h := harness{dash: &fakeDashboard{}, sessions: auth.NewSessions("test-secret", time.Hour)}
	d := Deps{
		Dashboard: h.dash,
		Auth:      fakeAuth{},
		Sessions:  h.sessions,
		Now:       func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) },
	}
	if mod != nil {
		mod(&d)
	}
	h.router = New(d).Router()
	return h
}

func (h harness) token(t *testing.T) string {
	tok, _, err := h.sessions.Issue(auth.Tenant{ClientID: "acme", ClientName: "ACME", SheetID: "sheet-1"})
	require.NoError(t, err)
	return tok
}

func (h harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	h := newHarness(nil)

	w := h.do(http.MethodPost, "/login", `{"client_id": "acme", "token": "s3cret"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ACME", body["client_name"])
	assert.NotEmpty(t, body["token"])
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=3600")

	claims, err := h.sessions.Parse(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", claims.SheetID)
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name string
		auth Authenticator
		body string
		code int
	}{
		{"missing fields", fakeAuth{}, `{"client_id": "acme"}`, http.StatusBadRequest},
		{"bad token", fakeAuth{}, `{"client_id": "acme", "token": "nope"}`, http.StatusUnauthorized},
		{"locked out", fakeAuth{err: auth.ErrLockedOut}, `{"client_id": "acme", "token": "s3cret"}`, http.StatusTooManyRequests},
		{"registry down", fakeAuth{err: auth.ErrRegistryUnavailable}, `{"client_id": "acme", "token": "s3cret"}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(func(d *Deps) { d.Auth = tt.auth })
			w := h.do(http.MethodPost, "/login", tt.body, "")
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestAPI_RequiresSession(t *testing.T) {
	h := newHarness(nil)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/conversations", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/conversations", "", "garbage").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", "").Code)
}

func TestAPI_SessionCookie(t *testing.T) {
	h := newHarness(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: h.token(t)})
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConversations_PassesTenantAndFilters(t *testing.T) {
	h := newHarness(nil)
	w := h.do(http.MethodGet, "/api/conversations?channel=whatsapp&date_preset=%C3%9Altimos+7+dias", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "acme", h.dash.last.ClientID)
	assert.Equal(t, "sheet-1", h.dash.last.SheetID)
	assert.Equal(t, "whatsapp", h.dash.last.Filter.Channel)
	require.NotNil(t, h.dash.last.Filter.DateStart)
	assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), *h.dash.last.Filter.DateStart)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Records, 1)
	assert.Equal(t, "c1", res.Records[0].ConversationID)
}

func TestSummary(t *testing.T) {
	h := newHarness(nil)
	w := h.do(http.MethodGet, "/api/summary", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Summary aggregator.Summary `json:"summary"`
		Actions []map[string]any   `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Summary.TotalConversations)
	assert.NotEmpty(t, body.Actions)
}

func TestFilters(t *testing.T) {
	h := newHarness(nil)
	w := h.do(http.MethodGet, "/api/filters", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"channels":["Todos","whatsapp"]`)
}

func TestValidation(t *testing.T) {
	h := newHarness(nil)
	h.dash.raw = types.RawTable{Header: []string{"conversation_id", "created_at", "channel"}, Rows: [][]string{{"c1", "", ""}}}
	w := h.do(http.MethodGet, "/api/validation", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_valid":true`)

	h.dash.rawErr = errors.New("down")
	assert.Equal(t, http.StatusBadGateway, h.do(http.MethodGet, "/api/validation", "", h.token(t)).Code)
}

func TestSheetInfo_WithoutInspector(t *testing.T) {
	h := newHarness(nil)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/sheet", "", h.token(t)).Code)
}

func TestRefreshAndLogout(t *testing.T) {
	h := newHarness(nil)
	tok := h.token(t)

	w := h.do(http.MethodPost, "/api/refresh", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", h.dash.refreshed)

	h.dash.refreshed = ""
	w = h.do(http.MethodPost, "/logout", "", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", h.dash.refreshed)
}

func TestExportCSV(t *testing.T) {
	h := newHarness(nil)
	w := h.do(http.MethodGet, "/api/export.csv", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "conversation_id,"))
	assert.True(t, strings.HasPrefix(lines[1], "c1,"))
}

func TestExportXLSX(t *testing.T) {
	h := newHarness(nil)
	w := h.do(http.MethodGet, "/api/export.xlsx", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestMessages(t *testing.T) {
	h := newHarness(nil)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/api/conversations/c1/messages", "", h.token(t)).Code)

	h = newHarness(func(d *Deps) { d.Chat = fakeChat{} })
	w := h.do(http.MethodGet, "/api/conversations/c1/messages", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"oi"`)

	h = newHarness(func(d *Deps) { d.Chat = fakeChat{err: &chatvolt.StatusError{Code: http.StatusNotFound}} })
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/conversations/c1/messages", "", h.token(t)).Code)

	h = newHarness(func(d *Deps) { d.Chat = fakeChat{err: errors.New("timeout")} })
	assert.Equal(t, http.StatusBadGateway, h.do(http.MethodGet, "/api/conversations/c1/messages", "", h.token(t)).Code)
}

func TestSetVariable(t *testing.T) {
	h := newHarness(func(d *Deps) { d.Chat = fakeChat{} })
	tok := h.token(t)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/conversations/c1/variables", `{"value": "x"}`, tok).Code)

	w := h.do(http.MethodPost, "/api/conversations/c1/variables", `{"name": "stage", "value": "quente"}`, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"c1"`)
}

func TestConversationAndAgent(t *testing.T) {
	h := newHarness(nil)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/api/conversations/c1", "", h.token(t)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/api/agents/ag1", "", h.token(t)).Code)

	h = newHarness(func(d *Deps) { d.Chat = fakeChat{} })
	w := h.do(http.MethodGet, "/api/conversations/c1", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"c1"`)

	w = h.do(http.MethodGet, "/api/agents/ag1", "", h.token(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Vendas"`)

	h = newHarness(func(d *Deps) { d.Chat = fakeChat{err: &chatvolt.StatusError{Code: http.StatusNotFound}} })
	w = h.do(http.MethodGet, "/api/agents/ag1", "", h.token(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "agent not found")
}
