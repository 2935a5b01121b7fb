// Package tenant implements the tenant API authentication helper: obtain an
// access token from the platform's auth endpoint and cache it encrypted.
package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the tenant API auth endpoint.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
}

// NewClient creates a tenant API client.
func NewClient(baseURL, clientID string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Token is an issued access token with its absolute expiry.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id,omitempty"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("tenant API base URL is not configured")
	}

	body, err := json.Marshal(loginRequest{
		Username: username,
		Password: password,
		ClientID: c.clientID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("authentication failed for %q", username)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("login failed: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if lr.AccessToken == "" {
		return nil, fmt.Errorf("login response contained no token")
	}

	return &Token{
		AccessToken: lr.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(lr.ExpiresIn) * time.Second),
	}, nil
}
