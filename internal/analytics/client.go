// Package analytics mirrors cart lifecycle events to the Signals
// personalization endpoint.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Item is a single cart line in a Signals payload.
type Item struct {
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	Name      string  `json:"name,omitempty"`
	BasePrice float64 `json:"baseprice,omitempty"`
	NetPrice  float64 `json:"netprice,omitempty"`
}

// Payload is the cart snapshot Signals expects on every tracking call.
type Payload struct {
	CartID string `json:"cartId"`
	Email  string `json:"email"`
	Items  []Item `json:"items"`
}

// Client is a thin HTTP client for the Signals endpoint. Activation with an
// auth key must succeed before any tracking call is accepted.
type Client struct {
	http    *http.Client
	baseURL string
	authKey string
}

// NewClient creates a Signals client for the given endpoint.
func NewClient(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

// Activate performs the auth-key handshake that arms the client.
func (c *Client) Activate(ctx context.Context, authKey string) error {
	if err := c.post(ctx, "/activate", map[string]string{"authKey": authKey}); err != nil {
		return fmt.Errorf("failed to activate signals client: %w", err)
	}
	c.authKey = authKey
	return nil
}

// AddToCart reports an item added to the cart.
func (c *Client) AddToCart(ctx context.Context, p Payload) error {
	return c.post(ctx, "/cart/add", p)
}

// RemoveFromCart reports an item removed from the cart.
func (c *Client) RemoveFromCart(ctx context.Context, p Payload) error {
	return c.post(ctx, "/cart/remove", p)
}

// ReplaceCart reports a quantity change for an item already in the cart.
func (c *Client) ReplaceCart(ctx context.Context, p Payload) error {
	return c.post(ctx, "/cart/replace", p)
}

// ClearCart reports the cart being emptied.
func (c *Client) ClearCart(ctx context.Context, p Payload) error {
	return c.post(ctx, "/cart/clear", p)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.authKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call signals endpoint: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("signals endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
