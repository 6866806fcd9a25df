// Package client provides an HTTP and websocket client for the Dungeon
// Master server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/brogue-dm/internal/metrics"
	"github.com/raphaelgruber/brogue-dm/internal/models"
)

// DefaultURL is used when neither an explicit URL nor DM_SERVER_URL is set.
const DefaultURL = "http://localhost:3001"

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.StatusCode, e.Message)
}

// Is makes 404 responses match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the Dungeon Master HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client.
// If baseURL is empty, uses DM_SERVER_URL env var or defaults to localhost:3001.
// Timeout can be configured via DM_CLIENT_TIMEOUT env var (default 30s, enough
// for one narration including the backend timeout).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("DM_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}

	timeout := 30 * time.Second
	if t := os.Getenv("DM_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and decodes a JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var er models.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Message != "" {
			apiErr.Message = er.Message
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if s, ok := result.(*string); ok {
		*s = string(data)
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// Health checks the server and returns its session id.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendEvent posts a game event.
func (c *Client) SendEvent(ctx context.Context, ev models.Event) (*models.EventResponse, error) {
	var out models.EventResponse
	if err := c.do(ctx, http.MethodPost, "/api/event", ev, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settings returns the live narrator settings.
func (c *Client) Settings(ctx context.Context) (*models.SettingsResponse, error) {
	var out models.SettingsResponse
	if err := c.do(ctx, http.MethodGet, "/api/narrator/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings runs one settings action.
func (c *Client) UpdateSettings(ctx context.Context, req models.SettingsRequest) (*models.SettingsResponse, error) {
	var out models.SettingsResponse
	if err := c.do(ctx, http.MethodPost, "/api/narrator/settings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preview returns a sample line in the live narrator's style.
func (c *Client) Preview(ctx context.Context) (*models.PreviewResponse, error) {
	var out models.PreviewResponse
	if err := c.do(ctx, http.MethodGet, "/api/narrator/preview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recent returns up to n short-term memories, most recent first.
func (c *Client) Recent(ctx context.Context, n int) ([]models.MemoryEntry, error) {
	var out models.MemoriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/memory/recent?n="+strconv.Itoa(n), nil, &out); err != nil {
		return nil, err
	}
	return out.Memories, nil
}

// History returns up to limit persisted significant events, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]models.MemoryEntry, error) {
	var out models.MemoriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/memory/history?limit="+strconv.Itoa(limit), nil, &out); err != nil {
		return nil, err
	}
	return out.Memories, nil
}

// Knowledge returns what is known about one creature or item. Returns an
// error matching ErrNotFound when nothing is known.
func (c *Client) Knowledge(ctx context.Context, category, name string) (*models.KnowledgeRecord, error) {
	var out models.KnowledgeResponse
	path := "/api/knowledge/" + url.PathEscape(category) + "/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Record != nil {
		out.Record.Category = out.Category
		out.Record.Name = out.Name
	}
	return out.Record, nil
}

// KnowledgeList returns every record in a category keyed by name.
func (c *Client) KnowledgeList(ctx context.Context, category string) (map[string]models.KnowledgeRecord, error) {
	var out models.KnowledgeListResponse
	if err := c.do(ctx, http.MethodGet, "/api/knowledge/"+url.PathEscape(category), nil, &out); err != nil {
		return nil, err
	}
	for name, rec := range out.Records {
		rec.Category = out.Category
		rec.Name = name
		out.Records[name] = rec
	}
	return out.Records, nil
}

// SessionLog returns the server's markdown session log.
func (c *Client) SessionLog(ctx context.Context) (string, error) {
	var out string
	if err := c.do(ctx, http.MethodGet, "/api/logs/current", nil, &out); err != nil {
		return "", err
	}
	return out, nil
}

// Stats returns server statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var out metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WatchNarrations streams the server's narration feed until ctx is canceled,
// the server closes the feed or onNarration returns an error.
func (c *Client) WatchNarrations(ctx context.Context, onNarration func(models.Narration) error) error {
	wsEndpoint := c.baseURL
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/ws/narrations")
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	// Track connection state for proper cleanup
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	// Handle context cancellation in a separate goroutine
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var n models.Narration
		if err := conn.ReadJSON(&n); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read narration: %w", err)
		}
		if err := onNarration(n); err != nil {
			return err
		}
	}
}
