package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// ListTablesTool is the list_tables built-in (spec §4.3 / §C2): a thin
// wrapper over the introspector's table listing.
type ListTablesTool struct {
	deps Deps
}

func (t *ListTablesTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "list_tables",
		Desc: "List every table and view visible in the connected database, with schema and kind (table or view).",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}, nil
}

func (t *ListTablesTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	listing, err := t.deps.Introspector.ListTables(ctx)
	if err != nil {
		return "", fmt.Errorf("list_tables: %w", err)
	}
	out, err := json.Marshal(listing)
	if err != nil {
		return "", fmt.Errorf("list_tables: marshal: %w", err)
	}
	return string(out), nil
}
