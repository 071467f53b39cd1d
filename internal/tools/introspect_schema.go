package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// IntrospectSchemaTool is the introspect_schema built-in (spec §4.3 /
// §C2): returns column/PK/FK detail for tables matching an optional
// pattern, cached per the introspector's TTL.
type IntrospectSchemaTool struct {
	deps Deps
}

type introspectSchemaInput struct {
	TablePattern string `json:"table_pattern"`
}

func (t *IntrospectSchemaTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "introspect_schema",
		Desc: "Get detailed schema information (columns, types, primary keys, foreign keys) for tables matching an optional pattern, e.g. 'public.orders' or 'user%'. Omit the pattern to describe every table.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"table_pattern": {
				Type:     schema.String,
				Desc:     "Optional table name pattern (supports a trailing %) or 'schema.table' to scope the result.",
				Required: false,
			},
		}),
	}, nil
}

func (t *IntrospectSchemaTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var in introspectSchemaInput
	if argumentsInJSON != "" {
		if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
			return "", fmt.Errorf("introspect_schema: invalid arguments: %w", err)
		}
	}

	info, err := t.deps.Introspector.GetSchema(ctx, in.TablePattern)
	if err != nil {
		return "", fmt.Errorf("introspect_schema: %w", err)
	}
	out, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("introspect_schema: marshal: %w", err)
	}
	return string(out), nil
}
