package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ApiResponse mirrors the server's envelope with typed data for client-side
// decoding
type ApiResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// Client wraps calls to the BlackAI backend
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// SetToken sets the bearer token used on protected routes
func (c *Client) SetToken(token string) {
	c.token = token
}

// doJSON performs a JSON request and decodes the envelope into out (when non-nil)
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	resp, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response (%d): %w", resp.StatusCode, err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope ApiResponse[json.RawMessage]
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
			return fmt.Errorf("request failed (%d): %s", resp.StatusCode, envelope.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}

// do performs a request and returns the raw response
func (c *Client) do(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}
