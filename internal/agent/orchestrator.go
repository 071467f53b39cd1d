// Package agent implements the run loop, prompt assembly, and history
// management of the agent orchestrator (spec §4.6 / C8).
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"sqlsaber/internal/events"
	"sqlsaber/internal/llm"
	"sqlsaber/internal/logging"
	"sqlsaber/internal/tools"
)

// Orchestrator runs one conversation against a fixed, fresh set of tool
// instances (spec §9 "global tool instances" — classes are shared via the
// registry, instances are not). One Orchestrator handles one user query
// at a time; concurrent queries use separate Orchestrators (spec §5).
type Orchestrator struct {
	llmClient      *llm.Client
	toolset        map[string]tools.Tool
	toolDefs       []llm.ToolDefinition
	history        *History
	historyEnabled bool
	promptCfg      PromptConfig
	cancel         CancellationToken
	log            *logging.Logger
	thinking       *llm.ThinkingConfig
}

// New builds an Orchestrator over a fixed toolset (already instantiated
// from a registry — see tools.Registry.Instantiate/InstantiateAll, so
// each Orchestrator's tools are distinct from every other's, per the
// tool-isolation invariant).
func New(toolset map[string]tools.Tool, llmClient *llm.Client, promptCfg PromptConfig, historyEnabled bool, log *logging.Logger) (*Orchestrator, error) {
	if log == nil {
		log = logging.NewNop()
	}
	defs, err := buildToolDefinitions(toolset)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	return &Orchestrator{
		llmClient:      llmClient,
		toolset:        toolset,
		toolDefs:       defs,
		history:        NewHistory(),
		historyEnabled: historyEnabled,
		promptCfg:      promptCfg,
		log:            log,
	}, nil
}

// buildToolDefinitions converts every tool's eino ToolInfo into the
// provider-facing llm.ToolDefinition shape, in a name-sorted order so the
// request payload is deterministic across runs.
func buildToolDefinitions(toolset map[string]tools.Tool) ([]llm.ToolDefinition, error) {
	names := make([]string, 0, len(toolset))
	for name := range toolset {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		info, err := toolset[name].Info(context.Background())
		if err != nil {
			return nil, fmt.Errorf("tool %q: info: %w", name, err)
		}
		var schemaBytes []byte
		if info.ParamsOneOf != nil {
			jsonSchema, err := info.ParamsOneOf.ToJSONSchema()
			if err != nil {
				return nil, fmt.Errorf("tool %q: schema: %w", name, err)
			}
			schemaBytes, err = json.Marshal(jsonSchema)
			if err != nil {
				return nil, fmt.Errorf("tool %q: marshal schema: %w", name, err)
			}
		} else {
			schemaBytes = []byte(`{"type":"object","properties":{}}`)
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        info.Name,
			Description: info.Desc,
			InputSchema: schemaBytes,
		})
	}
	return defs, nil
}

// SetThinking configures the extended-reasoning budget applied to every
// subsequent Run call (spec §6 thinking_enabled/thinking_level). Passing
// nil disables it.
func (o *Orchestrator) SetThinking(cfg *llm.ThinkingConfig) {
	o.thinking = cfg
}

// Cancel requests that the in-flight run stop at its next check point.
func (o *Orchestrator) Cancel() {
	o.cancel.Cancel()
}

// History exposes the committed conversation log (e.g. for the caller to
// inspect turn count in tests, or to persist it).
func (o *Orchestrator) History() *History {
	return o.history
}

// Run starts one turn of the conversation for prompt and streams events
// on the returned channel until the run ends (spec §4.6.2). The channel
// is closed when the run finishes, whether by completion, cancellation,
// or error.
func (o *Orchestrator) Run(ctx context.Context, prompt string) (<-chan events.Event, error) {
	o.cancel.reset()
	out := make(chan events.Event, 64)
	go o.runLoop(ctx, prompt, out)
	return out, nil
}

func (o *Orchestrator) runLoop(ctx context.Context, prompt string, out chan<- events.Event) {
	defer close(out)

	system := SystemPromptText(o.promptCfg, true)

	var committed []llm.Message
	if o.historyEnabled {
		committed = o.history.Snapshot()
	}
	turnMessages := append(committed, llm.Message{
		Role:    llm.RoleUser,
		Content: []llm.ContentBlock{{Type: llm.BlockText, Text: prompt}},
	})
	diffStart := len(turnMessages) - 1

	for {
		if o.cancel.Cancelled() {
			return
		}

		chunks, err := o.llmClient.StreamTurn(ctx, llm.TurnRequest{
			System:   system,
			Messages: turnMessages,
			Tools:    o.toolDefs,
			Thinking: o.thinking,
		})
		if err != nil {
			out <- events.Err(err.Error())
			return
		}

		reassembler := llm.NewReassembler()
		streamFailed := false
		for chunk := range chunks {
			if o.cancel.Cancelled() {
				return
			}
			if chunk.Kind == llm.ChunkError {
				out <- events.Err(chunk.Err.Error())
				streamFailed = true
				continue
			}
			reassembler.Apply(chunk)
			if chunk.Kind == llm.ChunkTextDelta {
				out <- events.Text(chunk.TextDelta)
			}
		}
		if streamFailed {
			return
		}

		result := reassembler.Result()
		turnMessages = append(turnMessages, llm.Message{
			Role:    llm.RoleAssistant,
			Content: assistantBlocks(result),
		})

		if len(result.ToolUses) == 0 {
			break
		}

		toolResultBlocks := make([]llm.ContentBlock, 0, len(result.ToolUses))
		for _, tu := range result.ToolUses {
			if o.cancel.Cancelled() {
				return
			}
			payload := o.runTool(ctx, tu, out)
			toolResultBlocks = append(toolResultBlocks, llm.ContentBlock{
				Type:      llm.BlockToolResult,
				ToolUseID: tu.ID,
				Content:   payload,
			})
		}
		turnMessages = append(turnMessages, llm.Message{
			Role:    llm.RoleUser,
			Content: toolResultBlocks,
		})

		if o.cancel.Cancelled() {
			if o.historyEnabled {
				o.history.Commit(turnMessages[diffStart:])
			}
			return
		}
	}

	if o.historyEnabled {
		o.history.Commit(turnMessages[diffStart:])
	}
}

// runTool dispatches one tool_use block, emitting its lifecycle and
// result events, and returns the content to feed back as a tool_result
// block. A missing tool or a tool-level error is surfaced as JSON the
// model can reason about (spec §4.6.4) — it never aborts the run.
func (o *Orchestrator) runTool(ctx context.Context, tu llm.ToolUse, out chan<- events.Event) string {
	var input map[string]any
	_ = json.Unmarshal(tu.Input, &input)

	out <- events.ToolUse(tu.Name, events.ToolStatusExecuting, input)

	tool, ok := o.toolset[tu.Name]
	if !ok {
		msg := fmt.Sprintf(`{"error": "unknown tool %q"}`, tu.Name)
		out <- events.ToolUse(tu.Name, events.ToolStatusFailed, input)
		out <- events.ToolResult(tu.Name, msg)
		return msg
	}

	callCtx := tools.WithToolCallID(ctx, tu.ID)
	result, err := tool.InvokableRun(callCtx, string(tu.Input))
	if err != nil {
		msg := fmt.Sprintf(`{"error": %q}`, err.Error())
		out <- events.ToolUse(tu.Name, events.ToolStatusFailed, input)
		out <- events.ToolResult(tu.Name, msg)
		return msg
	}

	out <- events.ToolUse(tu.Name, events.ToolStatusDone, input)
	emitToolSpecificEvent(out, tu.Name, tool, result)
	return result
}

// queryTextProvider is implemented by *tools.ExecuteSQLTool. Declared here
// rather than imported as a concrete type so emitToolSpecificEvent can
// recover the executed query text without execute_sql's JSON output (spec
// §4.3's success/row_count/results/truncated shape) needing a fifth field.
type queryTextProvider interface {
	LastExecutedQuery() string
}

// executeSQLResult mirrors execute_sql's spec §4.3 output shape, just
// enough of it to forward rows on the query_result event.
type executeSQLResult struct {
	Results []map[string]any `json:"results"`
}

// emitToolSpecificEvent additionally emits a query_result or plot_result
// event for the two tools whose output the consumer typically wants
// structured rather than as raw JSON text (spec §4.6.2: "emit
// tool-specific event (query_result, tool_result, plot_result)").
func emitToolSpecificEvent(out chan<- events.Event, toolName string, t tools.Tool, result string) {
	switch toolName {
	case "execute_sql":
		var r executeSQLResult
		if err := json.Unmarshal([]byte(result), &r); err == nil {
			query := ""
			if qt, ok := t.(queryTextProvider); ok {
				query = qt.LastExecutedQuery()
			}
			out <- events.QueryResult(query, r.Results)
			return
		}
	case "viz":
		var spec any
		if err := json.Unmarshal([]byte(result), &spec); err == nil {
			out <- events.PlotResult(spec)
			return
		}
	}
	out <- events.ToolResult(toolName, result)
}

func assistantBlocks(result llm.TurnResult) []llm.ContentBlock {
	blocks := make([]llm.ContentBlock, 0, len(result.ToolUses)+1)
	if result.Text != "" {
		blocks = append(blocks, llm.ContentBlock{Type: llm.BlockText, Text: result.Text})
	}
	for _, tu := range result.ToolUses {
		blocks = append(blocks, llm.ContentBlock{
			Type:  llm.BlockToolUse,
			ID:    tu.ID,
			Name:  tu.Name,
			Input: tu.Input,
		})
	}
	return blocks
}
