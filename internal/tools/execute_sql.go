package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// ExecuteSQLTool is the execute_sql built-in (spec §4.3 / §C1). Every
// execution runs inside a transaction that is always rolled back
// (dbpool.Gateway.ExecuteQuery), so the write-operation gate below is a
// user-facing refusal, not the safety mechanism itself — rollback is.
type ExecuteSQLTool struct {
	deps Deps

	lastQuery string
	lastRows  []map[string]any
}

// NewExecuteSQLTool constructs the tool with its per-run-instance result
// cache, matching the registry's "fresh instance per call" contract.
func NewExecuteSQLTool(deps Deps) *ExecuteSQLTool {
	return &ExecuteSQLTool{deps: deps}
}

// LastExecutedQuery returns the most recently executed query text (without
// the injected LIMIT), for the orchestrator to attach to its query_result
// event — the tool's own JSON output only carries spec §4.3's four fields.
func (t *ExecuteSQLTool) LastExecutedQuery() string {
	return t.lastQuery
}

type executeSQLInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// executeSQLOutput is the spec §4.3 result shape returned to the model:
// success/row_count/results/truncated, not the raw dbpool.QueryResult.
type executeSQLOutput struct {
	Success   bool             `json:"success"`
	RowCount  int              `json:"row_count"`
	Results   []map[string]any `json:"results"`
	Truncated bool             `json:"truncated"`
}

var writeOperationPrefixes = regexp.MustCompile(
	`(?i)^\s*(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|GRANT|REVOKE|REPLACE)\b`,
)

var limitPresent = regexp.MustCompile(`(?i)\bLIMIT\s+\d+\s*$`)

func (t *ExecuteSQLTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	desc := "Execute a SQL query against the connected database and return results as JSON. " +
		"Write and DDL statements (INSERT, UPDATE, DELETE, DROP, CREATE, ALTER, TRUNCATE, GRANT, REVOKE, REPLACE) " +
		"are refused unless dangerous mode is enabled for this session."
	return &schema.ToolInfo{
		Name: "execute_sql",
		Desc: desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "The SQL query to execute.",
				Required: true,
			},
			"limit": {
				Type:     schema.Integer,
				Desc:     "Maximum rows to return; a LIMIT clause is injected when the query has none. Defaults to 100.",
				Required: false,
			},
		}),
	}, nil
}

func (t *ExecuteSQLTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var in executeSQLInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &in); err != nil {
		return "", fmt.Errorf("execute_sql: invalid arguments: %w", err)
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return "", fmt.Errorf("execute_sql: query must not be empty")
	}

	if !t.deps.AllowDangerous && writeOperationPrefixes.MatchString(query) {
		return "", fmt.Errorf(
			"execute_sql: refusing to run a write/DDL statement in this session " +
				"(enable dangerous mode to allow INSERT/UPDATE/DELETE/DDL)",
		)
	}

	limit := t.deps.DefaultLimit
	if in.Limit > 0 {
		limit = in.Limit
	}
	queryWithLimit, limitInjected, effectiveLimit := applyDefaultLimit(query, limit)

	result, err := t.deps.Gateway.ExecuteQuery(ctx, queryWithLimit)
	if err != nil {
		return "", fmt.Errorf("execute_sql: %s", buildErrorMessage(err, query))
	}

	t.lastQuery = query
	t.lastRows = result.Rows

	if toolCallID := toolCallIDFromContext(ctx); toolCallID != "" && t.deps.Results != nil {
		t.deps.Results.Store(toolCallID, query, result.Rows)
	}

	output := executeSQLOutput{
		Success:   true,
		RowCount:  len(result.Rows),
		Results:   result.Rows,
		Truncated: limitInjected && len(result.Rows) >= effectiveLimit,
	}
	out, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("execute_sql: marshal: %w", err)
	}
	return string(out), nil
}

// applyDefaultLimit appends a LIMIT to a SELECT/WITH query that doesn't
// already specify one, the same guardrail the reference executor applies
// (it bounds result size against the 1000-row cap there; here against the
// caller-supplied or default limit). injected reports whether a LIMIT was
// added, and effectiveLimit the value used, so the caller can tell whether
// the result set was truncated by it.
func applyDefaultLimit(query string, defaultLimit int) (out string, injected bool, effectiveLimit int) {
	trimmed := strings.TrimRight(query, "; \t\n\r")
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return trimmed, false, 0
	}
	if limitPresent.MatchString(upper) || strings.Contains(upper, " LIMIT ") {
		return trimmed, false, 0
	}
	limit := defaultLimit
	if limit <= 0 {
		limit = 1000
	}
	return fmt.Sprintf("%s LIMIT %d", trimmed, limit), true, limit
}

// buildErrorMessage attaches a targeted hint to a raw driver error,
// grounded on the reference executor's substring-matched hint table.
func buildErrorMessage(err error, query string) string {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "no such column"), strings.Contains(errStr, "Unknown column"),
		strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "column"):
		return fmt.Sprintf("%v (hint: call introspect_schema to confirm the column names for this table before retrying)", err)
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "doesn't exist"),
		strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "relation"):
		return fmt.Sprintf("%v (hint: call list_tables to confirm the table name before retrying)", err)
	case strings.Contains(errStr, "syntax error"):
		return fmt.Sprintf("%v (hint: check the SQL dialect for this connection — function names and quoting differ across postgres/mysql/sqlite)", err)
	default:
		return fmt.Sprintf("%v\nquery: %s", err, query)
	}
}
