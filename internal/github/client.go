// Package github wraps the two GitHub API surfaces the agent needs:
// resolving the calling user's login from their runtime token, and
// fetching the Copilot payload-signing public keys.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultAPIBase = "https://api.github.com"

type Client struct {
	apiBase string
	client  *http.Client
}

func NewClient(apiBase string, client *http.Client) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{apiBase: strings.TrimRight(apiBase, "/"), client: client}
}

// User resolves the token's login name.
func (c *Client) User(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("user lookup failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Login == "" {
		return "", fmt.Errorf("user lookup returned no login")
	}
	return out.Login, nil
}
