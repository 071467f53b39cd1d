// Command sqlsaber is a thin wiring entrypoint over the agent orchestrator
// (spec §2, §5): it resolves configuration, opens the target database,
// builds the tool registry and LLM client, and streams one run's events
// (text to stdout, every other event to stderr). Terminal rendering, colorized display, and interactive command
// parsing beyond this flag surface are out of scope (spec §1).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sqlsaber/internal/agent"
	"sqlsaber/internal/config"
	"sqlsaber/internal/dbpool"
	"sqlsaber/internal/events"
	"sqlsaber/internal/introspect"
	"sqlsaber/internal/knowledge"
	"sqlsaber/internal/llm"
	"sqlsaber/internal/logging"
	"sqlsaber/internal/memory"
	"sqlsaber/internal/tools"
	"sqlsaber/internal/viz"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	dsn             string
	modelName       string
	apiKey          string
	memoryOverride  string
	memorySet       bool
	systemPrompt    string
	thinkingLevel   string
	allowDangerous  bool
	cacheTTLSeconds int
	stateDir        string
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "sqlsaber \"<question>\"",
		Short: "Ask a natural-language question against a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.memorySet = cmd.Flags().Changed("memory")
			return run(cmd.Context(), f, args[0])
		},
	}

	flagsSet := cmd.Flags()
	flagsSet.StringVar(&f.dsn, "db", "sqlite:///:memory:", "database connection string (postgresql://, mysql://, sqlite:///path, csv:///path.csv, or a bare file path)")
	flagsSet.StringVar(&f.modelName, "model", "", "provider:model, e.g. anthropic:claude-sonnet-4")
	flagsSet.StringVar(&f.apiKey, "api-key", "", "overrides credential lookup; requires --model")
	flagsSet.StringVar(&f.memoryOverride, "memory", "", "overrides stored memories for this run; empty disables memory injection")
	flagsSet.StringVar(&f.systemPrompt, "system-prompt", "", "replaces the built-in base system prompt template")
	flagsSet.StringVar(&f.thinkingLevel, "thinking-level", "", "minimal|low|medium|high|maximum")
	flagsSet.BoolVar(&f.allowDangerous, "allow-dangerous", false, "allow non-SELECT statements in execute_sql (always rolled back)")
	flagsSet.IntVar(&f.cacheTTLSeconds, "cache-ttl", 0, "schema cache lifetime in seconds (default 900)")
	flagsSet.StringVar(&f.stateDir, "state-dir", defaultStateDir(), "directory holding knowledge.db and memories.json")

	return cmd
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sqlsaber"
	}
	return filepath.Join(home, ".sqlsaber")
}

func run(ctx context.Context, f *flags, question string) error {
	cfg, err := resolveConfig(f)
	if err != nil {
		return err
	}

	log := logging.NewNop()

	opts, err := dbpool.ParseConnectionString(f.dsn)
	if err != nil {
		return fmt.Errorf("sqlsaber: %w", err)
	}
	if cfg.AllowDangerous {
		opts.Mode = dbpool.ModeReadWrite
	}

	manager := dbpool.New(log)
	db, err := manager.Open(opts)
	if err != nil {
		return fmt.Errorf("sqlsaber: open database: %w", err)
	}
	defer db.Close()

	gateway := dbpool.NewGateway(db, opts.Engine, log)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	introspector, err := introspect.New(opts.Engine, db, cacheTTL, log)
	if err != nil {
		return fmt.Errorf("sqlsaber: introspector: %w", err)
	}

	if err := os.MkdirAll(f.stateDir, 0o755); err != nil {
		return fmt.Errorf("sqlsaber: state dir: %w", err)
	}
	knowledgeStore, err := knowledge.Open(filepath.Join(f.stateDir, "knowledge.db"), log)
	if err != nil {
		return fmt.Errorf("sqlsaber: knowledge store: %w", err)
	}
	defer knowledgeStore.Close()

	memoryStore, err := memory.Open(filepath.Join(f.stateDir, "memories.json"))
	if err != nil {
		return fmt.Errorf("sqlsaber: memory store: %w", err)
	}

	databaseName := databaseNameFromDSN(f.dsn)
	results := tools.NewResultCache()

	vizModelName, vizAPIKey := cfg.ModelFor("viz")
	vizClient, err := newLLMClient(vizModelName, vizAPIKey)
	if err != nil {
		return fmt.Errorf("sqlsaber: viz model: %w", err)
	}
	vizAgent, err := viz.NewAgent(results, vizClient, log)
	if err != nil {
		return fmt.Errorf("sqlsaber: viz agent: %w", err)
	}

	deps := tools.Deps{
		Gateway:        gateway,
		Introspector:   introspector,
		Knowledge:      knowledgeStore,
		DatabaseName:   databaseName,
		AllowDangerous: cfg.AllowDangerous,
		DefaultLimit:   100,
		Results:        results,
		Viz:            vizAgent,
		Log:            log,
	}

	toolset := tools.NewDefaultRegistry().InstantiateAll(deps)

	mainModelName, mainAPIKey := cfg.ModelFor("")
	mainClient, err := newLLMClient(mainModelName, mainAPIKey)
	if err != nil {
		return fmt.Errorf("sqlsaber: main model: %w", err)
	}

	promptCfg := agent.PromptConfig{
		ModelFamily:  modelFamilyFor(mainModelName),
		DatabaseType: string(opts.Engine),
		DangerousMode: cfg.AllowDangerous,
		DatabaseName:  databaseName,
		Memory:        memoryStore,
	}
	if value, overridden := cfg.MemoryOverride(); overridden {
		promptCfg.MemoryOverride = &value
	}
	promptCfg.BaseTemplateOverride = cfg.EffectiveSystemPrompt("")

	orch, err := agent.New(toolset, mainClient, promptCfg, true, log)
	if err != nil {
		return fmt.Errorf("sqlsaber: orchestrator: %w", err)
	}
	orch.SetThinking(cfg.ThinkingRequest())

	ch, err := orch.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("sqlsaber: run: %w", err)
	}
	return printEvents(ch)
}

func resolveConfig(f *flags) (*config.Config, error) {
	var opts []config.Option
	if f.modelName != "" {
		opts = append(opts, config.WithModel(f.modelName))
	}
	if f.apiKey != "" {
		opts = append(opts, config.WithAPIKey(f.apiKey))
	}
	if f.memorySet {
		opts = append(opts, config.WithMemory(f.memoryOverride))
	}
	if f.systemPrompt != "" {
		opts = append(opts, config.WithSystemPrompt(f.systemPrompt))
	}
	if f.thinkingLevel != "" {
		opts = append(opts, config.WithThinking(config.ThinkingLevel(f.thinkingLevel)))
	}
	opts = append(opts, config.WithAllowDangerous(f.allowDangerous))
	if f.cacheTTLSeconds > 0 {
		opts = append(opts, config.WithCacheTTL(f.cacheTTLSeconds))
	}
	return config.New(opts...)
}

// newLLMClient resolves provider:model into a streaming client. Only the
// Anthropic-shaped wire contract (spec §4.4/§6) is implemented; any other
// provider prefix is a Configuration error, raised here at construction
// rather than surfacing mid-stream.
func newLLMClient(modelName, apiKey string) (*llm.Client, error) {
	if modelName == "" {
		return nil, fmt.Errorf("no model configured (pass --model provider:model)")
	}
	provider, model, err := config.ParseModelName(modelName)
	if err != nil {
		return nil, err
	}
	if provider != "anthropic" {
		return nil, fmt.Errorf("unsupported provider %q (only anthropic is wired)", provider)
	}
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for provider %q", provider)
	}
	return llm.NewClient(apiKey, model), nil
}

func modelFamilyFor(modelName string) agent.ModelFamily {
	if strings.Contains(modelName, "gpt") {
		return agent.FamilyGPT
	}
	return agent.FamilyClaude
}

func databaseNameFromDSN(dsn string) string {
	base := filepath.Base(dsn)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// printEvents is the minimal event sink: text deltas are written raw to
// stdout, every other event kind as one compact JSON line to stderr.
// Colorized/interactive
// rendering is out of scope (spec §1).
func printEvents(ch <-chan events.Event) error {
	for e := range ch {
		if e.Kind == events.KindText {
			fmt.Print(e.Text)
			continue
		}
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("sqlsaber: marshal event: %w", err)
		}
		fmt.Fprintln(os.Stderr, string(line))
	}
	fmt.Println()
	return nil
}
