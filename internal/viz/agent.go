package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"sqlsaber/internal/agent"
	"sqlsaber/internal/events"
	"sqlsaber/internal/llm"
	"sqlsaber/internal/logging"
	"sqlsaber/internal/tools"
)

// maxRetries mirrors the reference SpecAgent's MAX_RETRIES = 2: three
// total attempts before a validation failure is surfaced as a tool error.
const maxRetries = 2

// specTimeout is the wall-clock budget for one viz() call (spec §6
// "Visualization sub-agent: 300 s wall clock per top-level viz call").
const specTimeout = 300 * time.Second

const vizSystemPrompt = `You are a visualization spec generator. Given a user's request and data summary, generate a valid JSON visualization spec.

## Workflow
1. Decide the appropriate chart type based on the request and data. To see all available chart types, call get_available_chart_types
2. Call get_vizspec_template with the chart type and file to get the correct spec structure
3. Fill in the template with actual column names from the provided data summary
4. Return ONLY the final JSON spec (no explanations, no markdown code blocks)

## Example Chart Type Selection
- Comparing categories -> bar
- Comparing categories across series -> bar with encoding.series
- Trend over time -> line
- Correlation between two numbers -> scatter
- Distribution of one variable -> histogram
- Distribution comparison across groups -> boxplot

## Transform Operations (optional, add to "transform" array)
- {"sort": [{"field": "col", "dir": "desc"}]} sorts data
- {"limit": 20} limits rows (recommended for bar charts with many categories)
- {"filter": {"field": "col", "op": "!=", "value": null}} filters rows

## Rules
- Use ONLY columns that exist in the provided data summary
- Match field types: category columns for x in bar charts, numeric columns for y
- Add a limit transform for bar charts to avoid overcrowding (10-20 bars max)
- Sort bar charts by y value descending for better readability
- Title should describe what the chart shows`

// Agent is the nested visualization sub-agent (spec §4.5 / C7). It wraps
// an agent.Orchestrator restricted to the two viz helper tools and drives
// the validation-feedback retry loop, grounded on the reference
// SpecAgent.generate_spec.
type Agent struct {
	results   *tools.ResultCache
	llmClient *llm.Client
	schema    *jsonschema.Schema
	log       *logging.Logger
}

// NewAgent builds the sub-agent over the same ResultCache execute_sql
// populates, so it can resolve a result_<id>.json handle without
// re-running the query.
func NewAgent(results *tools.ResultCache, llmClient *llm.Client, log *logging.Logger) (*Agent, error) {
	schema, err := compileVizSpecSchema()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Agent{results: results, llmClient: llmClient, schema: schema, log: log}, nil
}

// Run implements tools.VizRunner. It never returns a Go error for an
// expected failure (missing result, timeout, exhausted retries) — those
// are encoded as a JSON error payload instead, matching how every other
// tool surfaces a recoverable failure to the model.
func (a *Agent) Run(ctx context.Context, request, file, chartTypeHint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, specTimeout)
	defer cancel()

	cached, ok := a.results.Get(file)
	if !ok {
		return errorJSON("Tool output not found in message history.", ""), nil
	}

	columns, rowCount := ExtractDataSummary(cached.Rows)

	toolset := map[string]tools.Tool{
		"get_vizspec_template":      &tools.VizSpecTemplateTool{},
		"get_available_chart_types": &tools.AvailableChartTypesTool{},
	}
	orch, err := agent.New(toolset, a.llmClient, agent.PromptConfig{FullOverride: vizSystemPrompt}, true, a.log)
	if err != nil {
		return errorJSON("Failed to generate a valid visualization spec.", err.Error()), nil
	}

	prompt := buildVizPrompt(request, columns, rowCount, file, chartTypeHint)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		text, err := a.runTurn(ctx, orch, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return errorJSON("Spec generation timed out.",
					fmt.Sprintf("Timed out after %d seconds.", int(specTimeout.Seconds()))), nil
			}
			return errorJSON("Failed to generate a valid visualization spec.", err.Error()), nil
		}

		spec, err := a.parseAndValidate(text, rowCount)
		if err == nil {
			out, marshalErr := json.Marshal(spec)
			if marshalErr != nil {
				return errorJSON("Failed to generate a valid visualization spec.", marshalErr.Error()), nil
			}
			return string(out), nil
		}

		lastErr = err
		if attempt == maxRetries {
			break
		}
		a.log.Debugf("viz spec validation failed, retrying (attempt %d/%d): %v", attempt+1, maxRetries+1, lastErr)
		prompt = fmt.Sprintf(
			"The spec you returned failed validation:\n%s\n\nFix the JSON and return ONLY the corrected spec.",
			lastErr,
		)
	}

	return errorJSON("Failed to generate a valid visualization spec.", lastErr.Error()), nil
}

// runTurn drives one full orchestrator run to completion (including any
// get_vizspec_template/get_available_chart_types tool calls) and returns
// the concatenated final assistant text.
func (a *Agent) runTurn(ctx context.Context, orch *agent.Orchestrator, prompt string) (string, error) {
	ch, err := orch.Run(ctx, prompt)
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for e := range ch {
		if e.Kind == events.KindError {
			return "", fmt.Errorf("%s", e.Error)
		}
		if e.Kind == events.KindText {
			text.WriteString(e.Text)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(text.String()), nil
}

// parseAndValidate parses the model's text tolerant of markdown fences,
// validates it against the VizSpec schema, decodes it into the typed
// union, and applies the bar-chart defaults (spec §4.5 step 6).
func (a *Agent) parseAndValidate(text string, rowCount int) (*VizSpec, error) {
	parsed, err := parseJSONObject(text)
	if err != nil {
		return nil, err
	}
	if err := a.schema.Validate(parsed); err != nil {
		return nil, err
	}

	data, err := json.Marshal(parsed)
	if err != nil {
		return nil, err
	}
	var spec VizSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	ensureBarDefaults(&spec, rowCount)
	return &spec, nil
}

// parseJSONObject parses text as a JSON object, tolerant of surrounding
// markdown fences or commentary by falling back to the substring between
// the first '{' and the last '}' (spec §4.5 step 4).
func parseJSONObject(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj, nil
	}

	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in model output")
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return obj, nil
}

// ensureBarDefaults appends a sort-by-y-desc and, for more than 20 rows, a
// limit=20 transform to a bar chart spec that doesn't already have them
// (spec §4.5 step 6).
func ensureBarDefaults(spec *VizSpec, rowCount int) {
	if spec.Chart.Bar == nil {
		return
	}

	hasSort, hasLimit := false, false
	for _, t := range spec.Transform {
		if t.Sort != nil {
			hasSort = true
		}
		if t.Limit != nil {
			hasLimit = true
		}
	}

	if !hasSort {
		spec.Transform = append(spec.Transform, Transform{
			Sort: &SortTransform{Sort: []SortItem{{Field: spec.Chart.Bar.Encoding.Y.Field, Dir: "desc"}}},
		})
	}
	if !hasLimit && rowCount > 20 {
		spec.Transform = append(spec.Transform, Transform{Limit: &LimitTransform{Limit: 20}})
	}
}

func buildVizPrompt(request string, columns []ColumnSummary, rowCount int, file, chartTypeHint string) string {
	columnsJSON, _ := json.MarshalIndent(columns, "", "  ")
	hint := ""
	if chartTypeHint != "" {
		hint = fmt.Sprintf("Chart type hint: %s\n\n", chartTypeHint)
	}
	return fmt.Sprintf(
		"## User Request\n%s\n\n## Data Summary\nRow count: %d\nFile: %s\nColumns:\n%s\n\n%sUse `get_vizspec_template` to get the correct spec structure, then fill in the placeholders with actual column names.\nReturn ONLY the final JSON.",
		strings.TrimSpace(request), rowCount, file, string(columnsJSON), hint,
	)
}

func errorJSON(message, details string) string {
	payload := map[string]string{"error": message}
	if details != "" {
		payload["details"] = details
	}
	out, _ := json.Marshal(payload)
	return string(out)
}
