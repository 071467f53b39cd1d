package viz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"sqlsaber/internal/llm"
	"sqlsaber/internal/logging"
	"sqlsaber/internal/tools"
)

func sseStream(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func textStream(text string) string {
	out, _ := json.Marshal(text)
	return `event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":` + string(out) + `}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn"}}

event: message_stop
data: {"type":"message_stop"}

`
}

func seedResults(t *testing.T, handle string) *tools.ResultCache {
	t.Helper()
	cache := tools.NewResultCache()
	cache.Store("abc123", "SELECT region, revenue FROM sales", []map[string]any{
		{"region": "west", "revenue": 100},
		{"region": "east", "revenue": 200},
	})
	require.True(t, tools.ValidHandle(handle))
	return cache
}

const validBarSpec = `{
	"version": "1",
	"title": "Revenue by region",
	"data": {"source": {"file": "result_abc123.json"}},
	"chart": {"type": "bar", "encoding": {"x": {"field": "region"}, "y": {"field": "revenue"}}}
}`

// missingTypeSpec omits the chart discriminator "type", which the schema
// rejects (required in every chart $def) and the viz union's UnmarshalJSON
// also rejects — either way parseAndValidate must fail.
const missingTypeSpec = `{
	"version": "1",
	"data": {"source": {"file": "result_abc123.json"}},
	"chart": {"encoding": {"x": {"field": "region"}, "y": {"field": "revenue"}}}
}`

func TestAgentRunReturnsErrorJSONWhenHandleMissing(t *testing.T) {
	srv := httptest.NewServer(sseStream(textStream(validBarSpec)))
	defer srv.Close()

	client := llm.NewClient("test-key", "claude-x", llm.WithBaseURL(srv.URL))
	agent, err := NewAgent(tools.NewResultCache(), client, logging.NewNop())
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "chart revenue by region", "result_missing.json", "")
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, "Tool output not found in message history.", payload["error"])
}

func TestAgentRunSucceedsOnFirstValidSpec(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		sseStream(textStream(validBarSpec))(w, r)
	}))
	defer srv.Close()

	client := llm.NewClient("test-key", "claude-x", llm.WithBaseURL(srv.URL))
	results := seedResults(t, "result_abc123.json")
	agent, err := NewAgent(results, client, logging.NewNop())
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "chart revenue by region", "result_abc123.json", "bar")
	require.NoError(t, err)

	var spec VizSpec
	require.NoError(t, json.Unmarshal([]byte(out), &spec))
	require.NotNil(t, spec.Chart.Bar)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// bar defaults: a sort-by-y-desc transform is injected when absent.
	require.Len(t, spec.Transform, 1)
	require.NotNil(t, spec.Transform[0].Sort)
}

// TestAgentRunSelfCorrectsAfterInvalidFirstAttempt covers the viz
// self-correction scenario: a spec missing its chart discriminator on the
// first attempt, followed by a valid spec on the retry, converges to a
// validated result after exactly two underlying model turns.
func TestAgentRunSelfCorrectsAfterInvalidFirstAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			sseStream(textStream(missingTypeSpec))(w, r)
			return
		}
		sseStream(textStream(validBarSpec))(w, r)
	}))
	defer srv.Close()

	client := llm.NewClient("test-key", "claude-x", llm.WithBaseURL(srv.URL))
	results := seedResults(t, "result_abc123.json")
	agent, err := NewAgent(results, client, logging.NewNop())
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "chart revenue by region", "result_abc123.json", "")
	require.NoError(t, err)

	var spec VizSpec
	require.NoError(t, json.Unmarshal([]byte(out), &spec))
	require.NotNil(t, spec.Chart.Bar)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAgentRunExhaustsRetriesAndReturnsErrorJSON(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		sseStream(textStream(missingTypeSpec))(w, r)
	}))
	defer srv.Close()

	client := llm.NewClient("test-key", "claude-x", llm.WithBaseURL(srv.URL))
	results := seedResults(t, "result_abc123.json")
	agent, err := NewAgent(results, client, logging.NewNop())
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "chart revenue by region", "result_abc123.json", "")
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, "Failed to generate a valid visualization spec.", payload["error"])
	require.NotEmpty(t, payload["details"])
	require.Equal(t, int32(maxRetries+1), atomic.LoadInt32(&calls))
}

func TestAgentRunInjectsLimitTransformWhenRowCountExceedsTwenty(t *testing.T) {
	srv := httptest.NewServer(sseStream(textStream(validBarSpec)))
	defer srv.Close()

	client := llm.NewClient("test-key", "claude-x", llm.WithBaseURL(srv.URL))
	cache := tools.NewResultCache()
	rows := make([]map[string]any, 25)
	for i := range rows {
		rows[i] = map[string]any{"region": "r", "revenue": i}
	}
	cache.Store("abc123", "SELECT region, revenue FROM sales", rows)

	agent, err := NewAgent(cache, client, logging.NewNop())
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "chart revenue by region", "result_abc123.json", "")
	require.NoError(t, err)

	var spec VizSpec
	require.NoError(t, json.Unmarshal([]byte(out), &spec))

	var hasLimit bool
	for _, tr := range spec.Transform {
		if tr.Limit != nil {
			hasLimit = true
			require.Equal(t, 20, tr.Limit.Limit)
		}
	}
	require.True(t, hasLimit, "expected a limit=20 transform for a bar chart with more than 20 rows")
}
