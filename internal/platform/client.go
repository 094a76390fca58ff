// Package platform talks to the RingCentral REST API: the shared
// authenticated client, the OAuth authorization lifecycle, and the webhook
// event subscription.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Credential is the installed access credential used by every outbound call.
type Credential struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

// Client is the single process-wide platform client. Every outbound API
// call goes through one shared instance carrying the active credential.
type Client struct {
	apiRoot string
	http    *http.Client

	mu   sync.RWMutex
	cred Credential
}

// NewClient creates a client rooted at the platform API base URL.
func NewClient(apiRoot string) *Client {
	return &Client{
		apiRoot: strings.TrimRight(apiRoot, "/"),
		http:    http.DefaultClient,
	}
}

// SetCredential installs a new credential, replacing the previous one.
func (c *Client) SetCredential(cred Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cred = cred
}

// Credential returns the installed credential and whether one is present.
func (c *Client) Credential() (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cred, c.cred.AccessToken != ""
}

// Post sends a JSON body to the API path and returns the response body.
func (c *Client) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
}

// Get fetches the API path and returns the response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiRoot+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred, ok := c.Credential(); ok {
		req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("platform %s %s status: %d", method, path, resp.StatusCode)
	}
	return data, nil
}
