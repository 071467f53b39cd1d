package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntrospectSchemaToolReturnsColumns(t *testing.T) {
	deps := Deps{Introspector: openTestIntrospector(t)}
	tool := &IntrospectSchemaTool{deps: deps}

	out, err := tool.InvokableRun(context.Background(), `{"table_pattern": "customers"}`)
	require.NoError(t, err)
	require.Contains(t, out, "name")
}

func TestIntrospectSchemaToolDefaultsToAllTables(t *testing.T) {
	deps := Deps{Introspector: openTestIntrospector(t)}
	tool := &IntrospectSchemaTool{deps: deps}

	out, err := tool.InvokableRun(context.Background(), "")
	require.NoError(t, err)
	require.Contains(t, out, "customers")
}
