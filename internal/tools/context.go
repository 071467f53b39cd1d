package tools

import "context"

type ctxKey int

const toolCallIDKey ctxKey = iota

// WithToolCallID attaches the model's tool_call_id to ctx before
// dispatching to a Tool's InvokableRun, so tools that cache a result
// (execute_sql) can key it the same way the model will reference it back
// (spec §4.3 "Result capture").
func WithToolCallID(ctx context.Context, toolCallID string) context.Context {
	return context.WithValue(ctx, toolCallIDKey, toolCallID)
}

// toolCallIDFromContext returns "" if the orchestrator didn't attach one.
func toolCallIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(toolCallIDKey).(string)
	return id
}
