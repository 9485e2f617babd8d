package sdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// CreateSession starts a new chat session
func (c *Client) CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat/sessions", req, &out); err != nil {
		return nil, err
	}

	if out.Data.ID == "" {
		return nil, fmt.Errorf("no id returned")
	}

	return &out.Data, nil
}

// ListSessions returns the caller's sessions, most recently updated first
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var out ApiResponse[[]Session]
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat/sessions", nil, &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// GetSession returns one session with its full transcript
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var out ApiResponse[Session]
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat/sessions/"+id, nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// DeleteSession deletes a session and its transcript
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/chat/sessions/"+id, nil, nil)
}

// SendTurn submits a user turn and waits for the full assistant reply
func (c *Client) SendTurn(ctx context.Context, sessionID string, req *PostTurnRequest) (*Turn, error) {
	var out ApiResponse[Turn]
	path := fmt.Sprintf("/api/chat/sessions/%s/messages", sessionID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// StreamTurn submits a user turn and returns the incremental plain-text
// response body. The caller must close the reader; the stream ends when the
// body is exhausted.
func (c *Client) StreamTurn(ctx context.Context, sessionID string, req *PostTurnRequest) (io.ReadCloser, error) {
	path := fmt.Sprintf("/api/chat/sessions/%s/messages/stream", sessionID)
	resp, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stream request failed (%d): %s", resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

// GenerateTitle asks the backend to derive and persist a session title
func (c *Client) GenerateTitle(ctx context.Context, sessionID string) (string, error) {
	var out ApiResponse[string]
	path := fmt.Sprintf("/api/chat/sessions/%s/title", sessionID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}

	return out.Data, nil
}
