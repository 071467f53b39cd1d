package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// chartTemplates mirrors the VizSpec discriminated union (spec §3, §C7),
// one entry per chart.type, keyed by name so get_vizspec_template can
// return just the branch the caller asked for.
var chartTemplates = map[string]any{
	"bar": map[string]any{
		"version": "1",
		"title":   "string | null",
		"data":    map[string]any{"source": map[string]any{"file": "result_<id>.json"}},
		"chart": map[string]any{
			"type": "bar",
			"encoding": map[string]any{
				"x":      map[string]any{"field": "string", "type": "category|number|time"},
				"y":      map[string]any{"field": "string", "type": "category|number|time"},
				"series": map[string]any{"field": "string", "type": "category|number|time", "optional": true},
			},
			"orientation": "vertical|horizontal",
			"mode":        "grouped|stacked",
			"options":     chartOptionsTemplate,
		},
		"transform": transformTemplate,
	},
	"line": map[string]any{
		"version": "1",
		"data":    map[string]any{"source": map[string]any{"file": "result_<id>.json"}},
		"chart": map[string]any{
			"type": "line",
			"encoding": map[string]any{
				"x":      map[string]any{"field": "string", "type": "category|number|time"},
				"y":      map[string]any{"field": "string", "type": "category|number|time"},
				"series": map[string]any{"field": "string", "type": "category|number|time", "optional": true},
			},
			"options": chartOptionsTemplate,
		},
		"transform": transformTemplate,
	},
	"scatter": map[string]any{
		"version": "1",
		"data":    map[string]any{"source": map[string]any{"file": "result_<id>.json"}},
		"chart": map[string]any{
			"type": "scatter",
			"encoding": map[string]any{
				"x":      map[string]any{"field": "string", "type": "category|number|time"},
				"y":      map[string]any{"field": "string", "type": "category|number|time"},
				"series": map[string]any{"field": "string", "type": "category|number|time", "optional": true},
			},
			"options": chartOptionsTemplate,
		},
		"transform": transformTemplate,
	},
	"boxplot": map[string]any{
		"version": "1",
		"data":    map[string]any{"source": map[string]any{"file": "result_<id>.json"}},
		"chart": map[string]any{
			"type": "boxplot",
			"boxplot": map[string]any{
				"label_field": "string",
				"value_field": "string",
			},
			"options": chartOptionsTemplate,
		},
		"transform": transformTemplate,
	},
	"histogram": map[string]any{
		"version": "1",
		"data":    map[string]any{"source": map[string]any{"file": "result_<id>.json"}},
		"chart": map[string]any{
			"type": "histogram",
			"histogram": map[string]any{
				"field": "string",
				"bins":  "integer (2-100, default 20)",
			},
			"options": chartOptionsTemplate,
		},
		"transform": transformTemplate,
	},
}

var chartOptionsTemplate = map[string]any{
	"width":    "integer (20-200), optional",
	"height":   "integer (10-100), optional",
	"x_label":  "string, optional",
	"y_label":  "string, optional",
	"color":    "string, optional",
	"marker":   "string, optional",
}

var transformTemplate = []any{
	map[string]any{"sort": []any{map[string]any{"field": "string", "dir": "asc|desc"}}},
	map[string]any{"limit": "integer >= 1"},
	map[string]any{"filter": map[string]any{"field": "string", "op": "==|!=|>|<|>=|<=", "value": "string|number|bool|null"}},
}

var availableChartTypes = []map[string]string{
	{"type": "bar", "use_when": "comparing discrete categories, optionally grouped/stacked by a series"},
	{"type": "line", "use_when": "a continuous or time-ordered trend across one or more series"},
	{"type": "scatter", "use_when": "the relationship between two numeric fields, optionally grouped by a series"},
	{"type": "boxplot", "use_when": "the distribution of a numeric field across discrete labels"},
	{"type": "histogram", "use_when": "the distribution of a single numeric field"},
}

// VizSpecTemplateTool is get_vizspec_template, exposed only to the
// visualization sub-agent (spec §4.3 last line).
type VizSpecTemplateTool struct{}

type vizSpecTemplateInput struct {
	ChartType string `json:"chart_type"`
}

func (t *VizSpecTemplateTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "get_vizspec_template",
		Desc: "Get the field shape of a VizSpec for a given chart type (bar, line, scatter, boxplot, histogram).",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"chart_type": {
				Type:     schema.String,
				Desc:     "One of: bar, line, scatter, boxplot, histogram.",
				Required: true,
			},
		}),
	}, nil
}

func (t *VizSpecTemplateTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var in vizSpecTemplateInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return "", fmt.Errorf("get_vizspec_template: invalid arguments: %w", err)
	}
	tmpl, ok := chartTemplates[in.ChartType]
	if !ok {
		return "", fmt.Errorf("get_vizspec_template: unknown chart_type %q", in.ChartType)
	}
	out, err := json.Marshal(tmpl)
	if err != nil {
		return "", fmt.Errorf("get_vizspec_template: marshal: %w", err)
	}
	return string(out), nil
}

// AvailableChartTypesTool is get_available_chart_types, exposed only to
// the visualization sub-agent (spec §4.3 last line).
type AvailableChartTypesTool struct{}

func (t *AvailableChartTypesTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        "get_available_chart_types",
		Desc:        "List the supported chart types and when to use each.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}, nil
}

func (t *AvailableChartTypesTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	out, err := json.Marshal(availableChartTypes)
	if err != nil {
		return "", fmt.Errorf("get_available_chart_types: marshal: %w", err)
	}
	return string(out), nil
}
