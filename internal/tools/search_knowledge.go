package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// SearchKnowledgeTool is the search_knowledge built-in (spec §4.3 / §C3):
// full-text search over saved query knowledge, scoped to the connected
// database.
type SearchKnowledgeTool struct {
	deps Deps
}

type searchKnowledgeInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (t *SearchKnowledgeTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "search_knowledge",
		Desc: "Search saved knowledge (named queries, schema notes, prior SQL) for this database using free-text terms.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Free-text search terms.",
				Required: true,
			},
			"limit": {
				Type:     schema.Integer,
				Desc:     "Maximum number of results to return (default 10).",
				Required: false,
			},
		}),
	}, nil
}

func (t *SearchKnowledgeTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var in searchKnowledgeInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return "", fmt.Errorf("search_knowledge: invalid arguments: %w", err)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}

	if t.deps.Knowledge == nil {
		return "[]", nil
	}
	entries, err := t.deps.Knowledge.Search(ctx, t.deps.DatabaseName, in.Query, limit)
	if err != nil {
		return "", fmt.Errorf("search_knowledge: %w", err)
	}
	out, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("search_knowledge: marshal: %w", err)
	}
	return string(out), nil
}
