// Package events defines the typed stream event contract between the agent
// orchestrator and whatever consumes a run (CLI, HTTP API, tests).
package events

// Kind discriminates the payload carried by an Event.
type Kind string

const (
	KindText       Kind = "text"
	KindToolUse    Kind = "tool_use"
	KindToolResult Kind = "tool_result"
	KindQueryResult Kind = "query_result"
	KindProcessing Kind = "processing"
	KindPlotResult Kind = "plot_result"
	KindError      Kind = "error"
)

// ToolStatus describes the lifecycle phase of a tool_use event.
type ToolStatus string

const (
	ToolStatusExecuting ToolStatus = "executing"
	ToolStatusDone      ToolStatus = "done"
	ToolStatusFailed    ToolStatus = "failed"
)

// Event is the tagged union streamed out of a run. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Event struct {
	Kind Kind `json:"kind"`

	// KindText
	Text string `json:"text,omitempty"`

	// KindToolUse
	ToolName   string         `json:"tool_name,omitempty"`
	ToolStatus ToolStatus     `json:"tool_status,omitempty"`
	ToolInput  map[string]any `json:"tool_input,omitempty"`

	// KindToolResult
	ToolResultPayload string `json:"tool_result_payload,omitempty"`

	// KindQueryResult
	Query string           `json:"query,omitempty"`
	Rows  []map[string]any `json:"rows,omitempty"`

	// KindProcessing
	Message string `json:"message,omitempty"`

	// KindPlotResult
	PlotSpec any `json:"plot_spec,omitempty"`

	// KindError
	Error string `json:"error,omitempty"`
}

// Text builds a KindText event.
func Text(s string) Event { return Event{Kind: KindText, Text: s} }

// ToolUse builds a KindToolUse event.
func ToolUse(name string, status ToolStatus, input map[string]any) Event {
	return Event{Kind: KindToolUse, ToolName: name, ToolStatus: status, ToolInput: input}
}

// ToolResult builds a KindToolResult event.
func ToolResult(name, payload string) Event {
	return Event{Kind: KindToolResult, ToolName: name, ToolResultPayload: payload}
}

// QueryResult builds a KindQueryResult event.
func QueryResult(query string, rows []map[string]any) Event {
	return Event{Kind: KindQueryResult, Query: query, Rows: rows}
}

// Processing builds a KindProcessing event.
func Processing(msg string) Event { return Event{Kind: KindProcessing, Message: msg} }

// PlotResult builds a KindPlotResult event.
func PlotResult(spec any) Event { return Event{Kind: KindPlotResult, PlotSpec: spec} }

// Err builds a KindError event.
func Err(msg string) Event { return Event{Kind: KindError, Error: msg} }
