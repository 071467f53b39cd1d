// Package tools implements the built-in tool surface (spec §4.3): a
// process-global class registry that hands each orchestrator a fresh set
// of tool instances, carrying run-scoped dependencies rather than shared
// mutable state (spec §9 "global tool instances").
package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"sqlsaber/internal/dbpool"
	"sqlsaber/internal/introspect"
	"sqlsaber/internal/knowledge"
	"sqlsaber/internal/logging"
)

// Tool is the contract every built-in tool implements — the same shape
// eino's tool.InvokableTool expects, so a Tool doubles as the definition
// handed to internal/llm for the request's tools field and as the
// dispatch target when the model requests a call.
type Tool interface {
	Info(ctx context.Context) (*schema.ToolInfo, error)
	InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error)
}

// VizRunner is implemented by internal/viz.Agent. Declared here as an
// interface (rather than importing internal/viz directly) to avoid a
// package cycle: internal/viz depends on internal/tools for its two
// helper tools, so internal/tools cannot import internal/viz back.
type VizRunner interface {
	Run(ctx context.Context, request, file, chartTypeHint string) (string, error)
}

// Deps is the run-scoped dependency bag every tool instance is
// constructed with — the replacement for the shared mutable fields the
// reference implementation read from a singleton (spec §9).
type Deps struct {
	Gateway        *dbpool.Gateway
	Introspector   *introspect.Introspector
	Knowledge      *knowledge.Store
	DatabaseName   string
	AllowDangerous bool
	DefaultLimit   int
	Results        *ResultCache
	Viz            VizRunner
	Log            *logging.Logger
}

func (d Deps) logger() *logging.Logger {
	if d.Log == nil {
		return logging.NewNop()
	}
	return d.Log
}
