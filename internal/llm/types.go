// Package llm implements the streaming LLM client (spec §4.4 / C6): a
// provider-agnostic SSE contract over the Anthropic Messages API,
// reassembling content blocks by index rather than relying on a single
// "current block" variable, so a turn with multiple concurrent tool_use
// blocks is handled correctly.
package llm

import "encoding/json"

// Role is a message's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates a ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one block of a Message's content, tagged by Type.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockToolUse
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// BlockToolResult
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Message is one turn of the conversation sent to/received from the model.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ToolDefinition is the provider-facing shape of one callable tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ThinkingConfig is the provider-specific extended-reasoning knob (spec
// §6 thinking_enabled/thinking_level). internal/llm never interprets the
// level itself — it only sends BudgetTokens when Enabled is set; the
// level-to-budget mapping lives in internal/config's ThinkingRequest.
type ThinkingConfig struct {
	Enabled      bool
	BudgetTokens int
}

// TurnRequest is everything needed to run one streaming turn.
type TurnRequest struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
	Thinking *ThinkingConfig
}

// ChunkKind discriminates a Chunk streamed out of StreamTurn.
type ChunkKind string

const (
	ChunkTextDelta     ChunkKind = "text_delta"
	ChunkToolUseStart  ChunkKind = "tool_use_start"
	ChunkToolUseInput  ChunkKind = "tool_use_input_delta"
	ChunkToolUseStop   ChunkKind = "tool_use_stop"
	ChunkMessageStop   ChunkKind = "message_stop"
	ChunkError         ChunkKind = "error"
)

// Chunk is one incremental event from the provider's SSE stream, tagged
// by Kind and always carrying the block Index it applies to (except for
// ChunkMessageStop/ChunkError, which apply to the whole turn).
type Chunk struct {
	Kind ChunkKind
	Index int

	// ChunkTextDelta
	TextDelta string

	// ChunkToolUseStart
	ToolUseID   string
	ToolUseName string

	// ChunkToolUseInput
	PartialJSON string

	// ChunkMessageStop
	StopReason string

	// ChunkError
	Err error
}

// TurnResult is the reassembled outcome of one streamed turn: the full
// text (if any), and every completed tool_use block in ascending provider
// index order.
type TurnResult struct {
	Text      string
	ToolUses  []ToolUse
	StopReason string
}

// ToolUse is one fully-reassembled tool call from a turn.
type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}
