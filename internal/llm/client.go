package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultBaseURL    = "https://api.anthropic.com/v1"
	defaultAPIVersion = "2023-06-01"
	defaultMaxTokens  = 4096
)

// Client is a minimal, provider-agnostic streaming client for Anthropic's
// Messages API. It does not implement the agentic tool loop itself (that
// is internal/agent's job) — it streams exactly one turn at a time and
// hands the caller raw Chunks plus a Reassembler to fold them with.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests point this at an httptest
// server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxTokens overrides the per-turn max_tokens budget.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// NewClient builds a Client for model, authenticating with apiKey.
func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{}, // no hard timeout: cancellation is via ctx
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      model,
		maxTokens:  defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wireRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []wireMessage    `json:"messages"`
	Tools     []ToolDefinition `json:"tools,omitempty"`
	Stream    bool             `json:"stream"`
	Thinking  *wireThinking    `json:"thinking,omitempty"`
}

type wireThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitempty"`
}

type wireMessage struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// StreamTurn sends req as one streaming Messages-API call and returns a
// channel of Chunks. The channel is closed when the turn ends (whether
// normally, via a stream error chunk, or because ctx was cancelled); the
// caller should keep draining it until closed rather than assume a single
// terminal chunk arrives.
func (c *Client) StreamTurn(ctx context.Context, req TurnRequest) (<-chan Chunk, error) {
	body := wireRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    req.System,
		Messages:  toWireMessages(req.Messages),
		Tools:     req.Tools,
		Stream:    true,
		Thinking:  toWireThinking(req.Thinking),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", defaultAPIVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llm: API returned %d: %s", resp.StatusCode, string(respBody))
	}

	out := make(chan Chunk, 64)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		if err := streamSSE(ctx, resp.Body, out); err != nil {
			select {
			case out <- Chunk{Kind: ChunkError, Err: err}:
			default:
			}
		}
	}()

	return out, nil
}

// Turn runs StreamTurn to completion, folding every Chunk through a fresh
// Reassembler, and additionally calls onChunk for each chunk as it
// arrives (e.g. to forward text deltas live). It is a convenience
// entrypoint for callers that don't need the raw channel; internal/agent
// calls StreamTurn directly.
func (c *Client) Turn(ctx context.Context, req TurnRequest, onChunk func(Chunk)) (TurnResult, error) {
	chunks, err := c.StreamTurn(ctx, req)
	if err != nil {
		return TurnResult{}, err
	}

	reassembler := NewReassembler()
	for chunk := range chunks {
		if chunk.Kind == ChunkError {
			return TurnResult{}, fmt.Errorf("llm: stream: %w", chunk.Err)
		}
		reassembler.Apply(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	return reassembler.Result(), nil
}

func toWireThinking(cfg *ThinkingConfig) *wireThinking {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return &wireThinking{Type: "enabled", BudgetTokens: cfg.BudgetTokens}
}

func toWireMessages(msgs []Message) []wireMessage {
	out := make([]wireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = wireMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
