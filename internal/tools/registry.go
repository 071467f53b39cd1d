package tools

import "fmt"

// Factory constructs one fresh tool instance from the run-scoped deps.
type Factory func(deps Deps) Tool

// Registry is the process-global class registry of spec §4.3: it stores
// constructors ("classes"), never instances. Registered once at process
// start; instantiated fresh by every orchestrator via Instantiate/
// InstantiateAll, so two orchestrators sharing a Registry never share a
// Tool instance (spec §8 "Tool isolation" / §9).
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named tool class. Registering a name twice is an error
// — it almost always indicates two packages picked the same tool name by
// accident, per the reference registry's behavior.
func (r *Registry) Register(name string, factory Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("tools: %q is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Unregister removes a tool class.
func (r *Registry) Unregister(name string) {
	delete(r.factories, name)
}

// ListNames returns every registered tool name.
func (r *Registry) ListNames() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// GetFactory returns the registered constructor for name, for callers
// that need the class itself rather than an instance.
func (r *Registry) GetFactory(name string) (Factory, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("tools: %q not found", name)
	}
	return factory, nil
}

// Instantiate builds one fresh Tool for name using deps. Every call
// returns a distinct instance, even for the same name and deps.
func (r *Registry) Instantiate(name string, deps Deps) (Tool, error) {
	factory, err := r.GetFactory(name)
	if err != nil {
		return nil, err
	}
	return factory(deps), nil
}

// InstantiateAll builds a fresh Tool for every registered name, keyed by
// name, for one orchestrator run.
func (r *Registry) InstantiateAll(deps Deps) map[string]Tool {
	out := make(map[string]Tool, len(r.factories))
	for name, factory := range r.factories {
		out[name] = factory(deps)
	}
	return out
}

// NewDefaultRegistry registers every built-in tool (spec §4.3).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("list_tables", func(deps Deps) Tool { return &ListTablesTool{deps: deps} })
	r.Register("introspect_schema", func(deps Deps) Tool { return &IntrospectSchemaTool{deps: deps} })
	r.Register("execute_sql", func(deps Deps) Tool { return NewExecuteSQLTool(deps) })
	r.Register("search_knowledge", func(deps Deps) Tool { return &SearchKnowledgeTool{deps: deps} })
	r.Register("viz", func(deps Deps) Tool { return &VizTool{deps: deps} })
	r.Register("get_vizspec_template", func(deps Deps) Tool { return &VizSpecTemplateTool{} })
	r.Register("get_available_chart_types", func(deps Deps) Tool { return &AvailableChartTypesTool{} })
	return r
}
