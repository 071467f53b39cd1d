package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubVizRunner struct {
	gotRequest, gotFile, gotHint string
	result                       string
}

func (s *stubVizRunner) Run(ctx context.Context, request, file, chartTypeHint string) (string, error) {
	s.gotRequest, s.gotFile, s.gotHint = request, file, chartTypeHint
	return s.result, nil
}

func TestVizToolDelegatesToRunner(t *testing.T) {
	runner := &stubVizRunner{result: `{"spec": "ok"}`}
	tool := &VizTool{deps: Deps{Viz: runner}}

	out, err := tool.InvokableRun(context.Background(), `{"request": "bar chart of revenue by month", "file": "result_call_1.json", "chart_type_hint": "bar"}`)
	require.NoError(t, err)
	require.Equal(t, `{"spec": "ok"}`, out)
	require.Equal(t, "bar chart of revenue by month", runner.gotRequest)
	require.Equal(t, "result_call_1.json", runner.gotFile)
	require.Equal(t, "bar", runner.gotHint)
}

func TestVizToolRejectsMalformedHandle(t *testing.T) {
	tool := &VizTool{deps: Deps{Viz: &stubVizRunner{}}}

	_, err := tool.InvokableRun(context.Background(), `{"request": "x", "file": "not-a-handle.json"}`)
	require.Error(t, err)
}

func TestVizToolErrorsWithoutRunner(t *testing.T) {
	tool := &VizTool{deps: Deps{}}

	_, err := tool.InvokableRun(context.Background(), `{"request": "x", "file": "result_a.json"}`)
	require.Error(t, err)
}
