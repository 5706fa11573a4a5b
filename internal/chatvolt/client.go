package chatvolt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"conversation-insights-go/internal/logger"
	"github.com/cenkalti/backoff/v4"
)

var ErrNotConfigured = errors.New("chatvolt api not configured")

const (
	maxVarName  = 20
	maxVarValue = 100
)

// StatusError is a non-retryable 4xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chatvolt: status %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxElapsed time.Duration
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxElapsed: 20 * time.Second,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

type Conversation map[string]any

type Message map[string]any

type Agent map[string]any

func (c *Client) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var out Conversation
	err := c.doJSON(ctx, http.MethodGet, "/conversation/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) GetConversationMessages(ctx context.Context, id string) ([]Message, error) {
	var out []Message
	err := c.doJSON(ctx, http.MethodGet, "/conversation/"+url.PathEscape(id)+"/messages", nil, &out)
	return out, err
}

func (c *Client) GetAgent(ctx context.Context, id string) (Agent, error) {
	var out Agent
	err := c.doJSON(ctx, http.MethodGet, "/agents/"+url.PathEscape(id), nil, &out)
	return out, err
}

// SetConversationVariable stores a custom variable on a conversation. The API
// caps names at 20 and values at 100 characters.
func (c *Client) SetConversationVariable(ctx context.Context, conversationID, name, value string) (map[string]any, error) {
	body := map[string]string{
		"conversationId": conversationID,
		"varName":        truncate(name, maxVarName),
		"varValue":       truncate(value, maxVarValue),
	}
	var out map[string]any
	err := c.doJSON(ctx, http.MethodPost, "/variables", body, &out)
	return out, err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// doJSON sends one request with exponential backoff on transport errors and
// 5xx answers. A fresh request is built per attempt so bodies can be replayed.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, target any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	log := logger.New().WithField("component", "chatvolt").WithField("path", path)

	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = &StatusError{Code: resp.StatusCode, Body: string(body)}
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		log.WithError(err).Warn("chatvolt request failed")
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
