// Package identity implements the remote identity service consumed by the
// session store: password-grant sign-in, signup and sign-out against the
// persisted backend's auth surface, with the issued session kept in durable
// local storage and session changes pushed to registered subscribers.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sellora/storefront/internal/logger"
	"github.com/sellora/storefront/internal/model"
)

const sessionKey = "identity/session"

var _ model.IdentityService = (*Client)(nil)

// Client talks to the backend auth endpoints and owns the locally persisted
// session token.
type Client struct {
	http    *http.Client
	baseURL string
	anonKey string
	kv      model.KV
	logger  *logger.Logger

	mu        sync.Mutex
	callbacks []func(*model.Session)
}

// NewClient creates an identity client for the given backend.
func NewClient(baseURL, anonKey string, kv model.KV, l *logger.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		anonKey: anonKey,
		kv:      kv,
		logger:  l,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type storedSession struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CurrentSession restores the persisted session, if any. An absent or
// expired token yields (nil, nil): anonymous, not an error.
func (c *Client) CurrentSession(ctx context.Context) (*model.Session, error) {
	raw, err := c.kv.Get(sessionKey)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stored session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		c.logger.Warn("Identity client: discarding malformed stored session", "error", err.Error())
		return nil, nil
	}
	if stored.AccessToken == "" {
		return nil, nil
	}

	sess, err := c.sessionFromToken(stored.AccessToken, stored.ExpiresAt)
	if err != nil {
		c.logger.Warn("Identity client: discarding undecodable stored session", "error", err.Error())
		return nil, nil
	}
	if sess.Expired() {
		return nil, nil
	}

	return sess, nil
}

// SignIn exchanges credentials for a session, persists it and notifies
// subscribers.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	status, err := c.post(ctx, "/auth/v1/token?grant_type=password", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, model.ErrInvalidCredentials
	}
	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("sign in returned status %d", status)
	}

	return c.acceptSession(resp)
}

// SignUp registers a new user and, when the backend issues a token right
// away, persists the resulting session and notifies subscribers.
func (c *Client) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	status, err := c.post(ctx, "/auth/v1/signup", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}
	if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
		return nil, model.ErrEmailTaken
	}
	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("sign up returned status %d", status)
	}

	return c.acceptSession(resp)
}

// SignOut invalidates the session remotely, clears the persisted token and
// notifies subscribers with a nil session.
func (c *Client) SignOut(ctx context.Context) error {
	raw, err := c.kv.Get(sessionKey)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stored session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(raw), &stored); err == nil && stored.AccessToken != "" {
		if err := c.revoke(ctx, stored.AccessToken); err != nil {
			return err
		}
	}

	if err := c.kv.Set(sessionKey, "{}"); err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}

	c.notify(nil)
	return nil
}

// OnSessionChange registers a standing subscriber invoked on every session
// change, including changes caused by this client's own SignIn/SignOut.
func (c *Client) OnSessionChange(fn func(*model.Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

func (c *Client) acceptSession(resp tokenResponse) (*model.Session, error) {
	expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	sess, err := c.sessionFromToken(resp.AccessToken, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode issued token: %w", err)
	}

	stored, err := json.Marshal(storedSession{AccessToken: sess.AccessToken, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := c.kv.Set(sessionKey, string(stored)); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	c.notify(sess)
	return sess, nil
}

// sessionFromToken extracts the identity from the access token's claims. The
// token is decoded, not verified: signature checks belong to the backend
// that issued it.
func (c *Client) sessionFromToken(accessToken string, expiresAt time.Time) (*model.Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	user := model.User{}
	if sub, err := claims.GetSubject(); err == nil {
		user.ID = sub
	}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if meta, ok := claims["user_metadata"].(map[string]any); ok {
		user.Profile = meta
	}

	return &model.Session{
		AccessToken: accessToken,
		User:        user,
		ExpiresAt:   expiresAt,
	}, nil
}

func (c *Client) notify(sess *model.Session) {
	c.mu.Lock()
	callbacks := make([]func(*model.Session), len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(sess)
	}
}

func (c *Client) revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to build logout request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call logout endpoint: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// An already invalid token is as signed-out as it gets.
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("logout returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) (int, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call auth endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusBadRequest && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
