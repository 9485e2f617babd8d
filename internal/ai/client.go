// Package ai wraps the external chat-completion provider behind a blocking
// call and a streaming call. The provider speaks the OpenAI chat-completions
// protocol; OpenRouter-style deployments are supported through a custom base
// URL and default headers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// ErrUpstream wraps every provider failure: transport errors, non-success
// statuses, and malformed response bodies. Callers can distinguish it from an
// empty-but-valid completion.
var ErrUpstream = errors.New("upstream completion failed")

// Message is one prompt message sent to the provider
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Event is one tagged element of a completion stream. Exactly one field is
// set: Delta carries an incremental text fragment, Err carries a mid-stream
// failure. The stream ends when the channel closes.
type Event struct {
	Delta string
	Err   error
}

// Config carries everything the client needs. Credentials are injected here
// at construction; the client never reads process state afterwards.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Referrer string // optional HTTP-Referer header (OpenRouter ranking)
	Title    string // optional X-Title header (OpenRouter ranking)
}

// Client talks to one external text-completion provider
type Client struct {
	client *openai.Client
	model  string
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

// NewClient creates a completion client from an explicit configuration
func NewClient(cfg Config) *Client {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	// Inject optional headers (useful for OpenRouter)
	if cfg.Referrer != "" || cfg.Title != "" {
		h := http.Header{}
		if cfg.Referrer != "" {
			h.Set("HTTP-Referer", cfg.Referrer)
		}
		if cfg.Title != "" {
			h.Set("X-Title", cfg.Title)
		}
		config.HTTPClient = &http.Client{Transport: headerTransport{rt: http.DefaultTransport, headers: h}}
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

// Complete sends the full message list and waits for the whole assistant
// reply
func (c *Client) Complete(ctx context.Context, messages []Message, temperature *float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, temperature, false))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrUpstream)
	}

	return resp.Choices[0].Message.Content, nil
}

// CompleteStream opens a streaming completion and returns an ordered, finite,
// non-restartable event sequence. Every Delta is non-empty; a mid-stream
// provider failure yields one Err event; the channel closes when the sequence
// ends. An error opening the stream is reported directly instead.
func (c *Client) CompleteStream(ctx context.Context, messages []Message, temperature *float32) (<-chan Event, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.buildRequest(messages, temperature, true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case events <- Event{Err: fmt.Errorf("%w: %v", ErrUpstream, err)}:
				case <-ctx.Done():
				}
				return
			}

			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			select {
			case events <- Event{Delta: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// buildRequest maps our message form onto the provider request
func (c *Client) buildRequest(messages []Message, temperature *float32, stream bool) openai.ChatCompletionRequest {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: oaMsgs,
		Stream:   stream,
	}
	if temperature != nil {
		req.Temperature = *temperature
	}

	return req
}
