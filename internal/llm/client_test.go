package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sseHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

const textOnlyStream = `event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn"}}

event: message_stop
data: {"type":"message_stop"}

`

func TestStreamTurnReassemblesTextAcrossDeltas(t *testing.T) {
	srv := httptest.NewServer(sseHandler(textOnlyStream))
	defer srv.Close()

	client := NewClient("test-key", "claude-x", WithBaseURL(srv.URL))
	result, err := client.Turn(context.Background(), TurnRequest{Messages: []Message{
		{Role: RoleUser, Content: []ContentBlock{{Type: BlockText, Text: "hi"}}},
	}}, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello", result.Text)
	require.Equal(t, "end_turn", result.StopReason)
	require.Empty(t, result.ToolUses)
}

const twoToolUseStream = `event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"call_a","name":"list_tables"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{}"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: content_block_start
data: {"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"call_b","name":"execute_sql"}}

event: content_block_delta
data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"query\":"}}

event: content_block_delta
data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"SELECT 1\"}"}}

event: content_block_stop
data: {"type":"content_block_stop","index":1}

event: message_stop
data: {"type":"message_stop"}

`

func TestStreamTurnReassemblesInterleavedToolUseBlocksByIndex(t *testing.T) {
	srv := httptest.NewServer(sseHandler(twoToolUseStream))
	defer srv.Close()

	client := NewClient("test-key", "claude-x", WithBaseURL(srv.URL))
	result, err := client.Turn(context.Background(), TurnRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, result.ToolUses, 2)
	require.Equal(t, "list_tables", result.ToolUses[0].Name)
	require.Equal(t, "execute_sql", result.ToolUses[1].Name)
	require.JSONEq(t, `{"query":"SELECT 1"}`, string(result.ToolUses[1].Input))
}

func TestStreamTurnCancellationStopsEarly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for i := 0; i < 1000; i++ {
			_, _ = w.Write([]byte("event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"x\"}}\n\n"))
			if flusher != nil {
				flusher.Flush()
			}
			time.Sleep(2 * time.Millisecond)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", "claude-x", WithBaseURL(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Turn(ctx, TurnRequest{}, nil)
	require.Error(t, err)
}

func TestStreamTurnOmitsThinkingFieldWhenNotConfigured(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		sseHandler(textOnlyStream)(w, r)
	}))
	defer srv.Close()

	client := NewClient("test-key", "claude-x", WithBaseURL(srv.URL))
	_, err := client.Turn(context.Background(), TurnRequest{}, nil)
	require.NoError(t, err)
	require.NotContains(t, captured, "thinking")
}

func TestStreamTurnWiresThinkingBudgetOntoRequestBody(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		sseHandler(textOnlyStream)(w, r)
	}))
	defer srv.Close()

	client := NewClient("test-key", "claude-x", WithBaseURL(srv.URL))
	_, err := client.Turn(context.Background(), TurnRequest{
		Thinking: &ThinkingConfig{Enabled: true, BudgetTokens: 4096},
	}, nil)
	require.NoError(t, err)
	require.Contains(t, captured, "thinking")
	thinking := captured["thinking"].(map[string]any)
	require.Equal(t, "enabled", thinking["type"])
	require.Equal(t, float64(4096), thinking["budget_tokens"])
}

func TestStreamTurnOmitsThinkingFieldWhenDisabled(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		sseHandler(textOnlyStream)(w, r)
	}))
	defer srv.Close()

	client := NewClient("test-key", "claude-x", WithBaseURL(srv.URL))
	_, err := client.Turn(context.Background(), TurnRequest{
		Thinking: &ThinkingConfig{Enabled: false, BudgetTokens: 4096},
	}, nil)
	require.NoError(t, err)
	require.NotContains(t, captured, "thinking")
}

func TestStreamTurnSurfacesHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "claude-x", WithBaseURL(srv.URL))
	_, err := client.StreamTurn(context.Background(), TurnRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}
