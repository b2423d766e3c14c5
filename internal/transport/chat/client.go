package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Client talks to the hosted chat service. The engine only needs two
// calls: the active-channel set for trending, and membership adds on join.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *zap.Logger
}

// Config holds chat service connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a chat service client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// ActiveChannels returns the ids of channels with live activity.
func (c *Client) ActiveChannels(ctx context.Context) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/channels/active", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch active channels: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var body struct {
		Channels []string `json:"channels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode active channels: %w", err)
	}

	active := make(map[string]struct{}, len(body.Channels))
	for _, id := range body.Channels {
		active[id] = struct{}{}
	}
	return active, nil
}

// AddMember adds a user to a channel. Callers treat failures as
// best-effort; this method just reports them.
func (c *Client) AddMember(ctx context.Context, channelID, userID string) error {
	if channelID == "" {
		return fmt.Errorf("channel id is required")
	}

	payload, err := json.Marshal(map[string]string{"user_id": userID})
	if err != nil {
		return fmt.Errorf("marshal member payload: %w", err)
	}

	endpoint := c.baseURL + "/v1/channels/" + url.PathEscape(channelID) + "/members"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("add channel member: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.apiError(resp)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// apiError extracts a human-readable error from the response body.
func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	c.logger.Warn("Chat API error response",
		zap.Int("status", resp.StatusCode),
		zap.String("url", resp.Request.URL.Path),
	)

	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return fmt.Errorf("chat API error %d: %s", resp.StatusCode, parsed.Detail)
	}
	return fmt.Errorf("chat API error %d: %s", resp.StatusCode, string(body))
}
