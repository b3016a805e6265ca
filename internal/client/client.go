package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"songforge/internal/logger"
	"songforge/internal/models"
	"songforge/internal/sync"
)

// Client adapts the songforge HTTP API to the synchronizer's Backend and
// Feed interfaces. The feed side consumes the SSE stream; each decoded
// event only triggers a refetch upstream, so a dropped or garbled frame
// costs nothing but latency.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logger  *logger.Logger
}

func New(baseURL, token string, log *logger.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{},
		Logger:  log,
	}
}

// Login authenticates and returns a client carrying the session token.
func Login(ctx context.Context, baseURL, email, password string, log *logger.Logger) (*Client, error) {
	body, err := json.Marshal(models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var loginResp models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	return New(baseURL, loginResp.Token, log), nil
}

// OrdersByOwner fetches the caller's own orders. The ownerID argument is
// implied by the session token; it is accepted only to satisfy the
// interface.
func (c *Client) OrdersByOwner(ctx context.Context, ownerID string) ([]models.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v1/orders/mine", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orders fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orders fetch failed with status %d", resp.StatusCode)
	}

	var orders []models.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// Subscribe opens the SSE stream and forwards order events. The channel
// argument exists for interface parity; the server scopes the stream by
// token.
func (c *Client) Subscribe(ctx context.Context, ownerID, channel string) (<-chan sync.Event, func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.BaseURL+"/api/v1/orders/events", nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("SSE connect failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("SSE connect failed with status %d", resp.StatusCode)
	}

	events := make(chan sync.Event, 10)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		c.readStream(streamCtx, resp.Body, events)
	}()

	return events, cancel, nil
}

func (c *Client) readStream(ctx context.Context, body io.Reader, events chan<- sync.Event) {
	scanner := bufio.NewScanner(body)
	var eventName string

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventName = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if eventName != "order" {
				continue
			}
			var event sync.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				c.Logger.Warn("CLIENT", fmt.Sprintf("bad SSE frame: %v", err))
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.Logger.Warn("CLIENT", fmt.Sprintf("SSE stream ended: %v", err))
	}
}

// SubmitOrder places a new order and returns the created record.
func (c *Client) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("order submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("order submit failed with status %d", resp.StatusCode)
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return &order, nil
}

// TerminalNotifier prints notices for interactive sessions.
type TerminalNotifier struct {
	Logger *logger.Logger
}

func (n TerminalNotifier) Notify(level, message string) {
	switch level {
	case "error":
		n.Logger.Error("NOTICE", message)
	case "info":
		n.Logger.Info("NOTICE", message)
	default:
		n.Logger.Warn("NOTICE", message)
	}
}

var _ sync.Backend = (*Client)(nil)
var _ sync.Feed = (*Client)(nil)
