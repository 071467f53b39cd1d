package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// VizTool is the viz built-in (spec §4.3 / §4.5 / §C7): it hands the
// request off to the nested visualization sub-agent rather than building
// a chart itself.
type VizTool struct {
	deps Deps
}

type vizInput struct {
	Request       string `json:"request"`
	File          string `json:"file"`
	ChartTypeHint string `json:"chart_type_hint"`
}

func (t *VizTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "viz",
		Desc: "Render a chart from a prior execute_sql result. Describe what to plot in natural language; reference the result by its result_<id>.json handle.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"request": {
				Type:     schema.String,
				Desc:     "Natural-language description of the chart to produce.",
				Required: true,
			},
			"file": {
				Type:     schema.String,
				Desc:     "The result_<tool_call_id>.json handle of the data to plot.",
				Required: true,
			},
			"chart_type_hint": {
				Type:     schema.String,
				Desc:     "Optional hint: one of bar, line, scatter, boxplot, histogram.",
				Required: false,
			},
		}),
	}, nil
}

func (t *VizTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var in vizInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return "", fmt.Errorf("viz: invalid arguments: %w", err)
	}
	if !ValidHandle(in.File) {
		return "", fmt.Errorf("viz: %q is not a valid result handle (expected result_<id>.json)", in.File)
	}
	if t.deps.Viz == nil {
		return "", fmt.Errorf("viz: visualization is not configured for this session")
	}
	return t.deps.Viz.Run(ctx, in.Request, in.File, in.ChartTypeHint)
}
