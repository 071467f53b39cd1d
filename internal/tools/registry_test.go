package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("x", func(deps Deps) Tool { return &VizSpecTemplateTool{} }))

	err := r.Register("x", func(deps Deps) Tool { return &VizSpecTemplateTool{} })
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestInstantiateReturnsFreshInstanceEachCall(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("x", func(deps Deps) Tool { return &VizSpecTemplateTool{} }))

	a, err := r.Instantiate("x", Deps{})
	require.NoError(t, err)
	b, err := r.Instantiate("x", Deps{})
	require.NoError(t, err)
	require.NotSame(t, a, b)
}

func TestGetFactoryUnknownNameErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetFactory("nope")
	require.Error(t, err)
}

func TestNewDefaultRegistryRegistersEveryBuiltin(t *testing.T) {
	r := NewDefaultRegistry()
	for _, name := range []string{
		"list_tables", "introspect_schema", "execute_sql",
		"search_knowledge", "viz", "get_vizspec_template", "get_available_chart_types",
	} {
		_, err := r.GetFactory(name)
		require.NoErrorf(t, err, "expected %q to be registered", name)
	}
}
