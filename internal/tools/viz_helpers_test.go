package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVizSpecTemplateToolKnownChartType(t *testing.T) {
	tool := &VizSpecTemplateTool{}
	out, err := tool.InvokableRun(context.Background(), `{"chart_type": "histogram"}`)
	require.NoError(t, err)
	require.Contains(t, out, "bins")
}

func TestVizSpecTemplateToolUnknownChartType(t *testing.T) {
	tool := &VizSpecTemplateTool{}
	_, err := tool.InvokableRun(context.Background(), `{"chart_type": "pie"}`)
	require.Error(t, err)
}

func TestAvailableChartTypesToolListsAllFive(t *testing.T) {
	tool := &AvailableChartTypesTool{}
	out, err := tool.InvokableRun(context.Background(), "")
	require.NoError(t, err)
	for _, chartType := range []string{"bar", "line", "scatter", "boxplot", "histogram"} {
		require.Contains(t, out, chartType)
	}
}
