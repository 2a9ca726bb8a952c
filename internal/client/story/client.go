// Package story is the thin client for the story-generation backend. It is
// plain authenticated request/response with no branching state; the
// interesting lifecycle lives in the flow package.
package story

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avoskres/taleweaver/internal/client/identity"
	"github.com/avoskres/taleweaver/internal/logging"
)

type Client struct {
	baseURL string
	httpc   *http.Client
	log     logging.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		log:     log.With("component", "story"),
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Story string `json:"story"`
	Error string `json:"error"`
}

// Generate asks the backend for a story. The session must be valid; its
// access token is sent as a bearer token.
func (c *Client) Generate(ctx context.Context, sess *identity.Session, prompt string) (string, error) {
	if !sess.Valid() {
		return "", fmt.Errorf("session expired, log in again")
	}

	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/stories", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("story request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("story response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn(ctx, "story backend error", "status", resp.StatusCode, "error", gr.Error)
		if gr.Error != "" {
			return "", fmt.Errorf("story backend: %s", gr.Error)
		}
		return "", fmt.Errorf("story backend: %s", resp.Status)
	}

	return gr.Story, nil
}

// Ping checks backend liveness without authentication.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("story backend unavailable: %s", resp.Status)
	}
	return nil
}
