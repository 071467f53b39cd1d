// Package config resolves the options enumerated in spec §6 into one
// struct threaded through every constructor, following the single
// resolved-value pattern common across this codebase rather than
// scattered globals.
package config

import (
	"fmt"
	"strings"

	"sqlsaber/internal/llm"
)

// ThinkingLevel is the provider-agnostic extended-reasoning knob.
type ThinkingLevel string

const (
	ThinkingMinimal ThinkingLevel = "minimal"
	ThinkingLow     ThinkingLevel = "low"
	ThinkingMedium  ThinkingLevel = "medium"
	ThinkingHigh    ThinkingLevel = "high"
	ThinkingMaximum ThinkingLevel = "maximum"
)

func (l ThinkingLevel) valid() bool {
	switch l {
	case ThinkingMinimal, ThinkingLow, ThinkingMedium, ThinkingHigh, ThinkingMaximum:
		return true
	}
	return false
}

const defaultCacheTTLSeconds = 900

// ToolOverride lets a single tool (notably viz) run against a different
// provider/model than the main orchestrator.
type ToolOverride struct {
	ModelName string
	APIKey    string
}

// Config is the fully resolved set of options from spec §6. Construct it
// with New and a list of Option values; New validates the combination and
// returns a Configuration error (spec §7 kind 1) for anything invalid.
type Config struct {
	ModelName       string
	APIKey          string
	memory          *string // nil = use stored memories; non-nil (incl. "") = override
	SystemPrompt    string
	ThinkingEnabled bool
	ThinkingLevel   ThinkingLevel
	ToolOverrides   map[string]ToolOverride
	AllowDangerous  bool
	CacheTTLSeconds int
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithModel selects the provider+model pair, e.g. "anthropic:claude-sonnet-4".
func WithModel(modelName string) Option {
	return func(c *Config) { c.ModelName = modelName }
}

// WithAPIKey overrides credential lookup. Per spec §6 this requires
// ModelName to also be set; New enforces that.
func WithAPIKey(apiKey string) Option {
	return func(c *Config) { c.APIKey = apiKey }
}

// WithMemory overrides stored memories for this run. An empty string
// disables memory injection entirely; omitting this option falls back to
// whatever internal/memory has stored for the active database.
func WithMemory(memory string) Option {
	return func(c *Config) { c.memory = &memory }
}

// WithSystemPrompt replaces the built-in base template. A whitespace-only
// value is ignored (treated as not set) per spec §6.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) { c.SystemPrompt = prompt }
}

// WithThinking sets the extended-reasoning level; setting any level
// implies ThinkingEnabled, per spec §6.
func WithThinking(level ThinkingLevel) Option {
	return func(c *Config) { c.ThinkingLevel = level; c.ThinkingEnabled = true }
}

// WithThinkingEnabled toggles extended reasoning without pinning a level.
func WithThinkingEnabled(enabled bool) Option {
	return func(c *Config) { c.ThinkingEnabled = enabled }
}

// WithToolOverride routes one tool to a different model/credential pair.
func WithToolOverride(toolName string, override ToolOverride) Option {
	return func(c *Config) {
		if c.ToolOverrides == nil {
			c.ToolOverrides = make(map[string]ToolOverride)
		}
		c.ToolOverrides[toolName] = override
	}
}

// WithAllowDangerous enables non-SELECT statements in execute_sql (still
// rolled back regardless).
func WithAllowDangerous(allow bool) Option {
	return func(c *Config) { c.AllowDangerous = allow }
}

// WithCacheTTL sets the schema cache lifetime in seconds.
func WithCacheTTL(seconds int) Option {
	return func(c *Config) { c.CacheTTLSeconds = seconds }
}

// New resolves a Config from opts, applying defaults and validating the
// combination. A returned error is a Configuration error (spec §7 kind
// 1): fatal to the run, raised before any tool or orchestrator exists.
func New(opts ...Option) (*Config, error) {
	c := &Config{
		CacheTTLSeconds: defaultCacheTTLSeconds,
		ToolOverrides:   make(map[string]ToolOverride),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.APIKey != "" && c.ModelName == "" {
		return fmt.Errorf("api_key set without model_name")
	}
	if c.ModelName != "" {
		if _, _, err := ParseModelName(c.ModelName); err != nil {
			return err
		}
	}
	if c.ThinkingLevel != "" && !c.ThinkingLevel.valid() {
		return fmt.Errorf("unknown thinking_level %q", c.ThinkingLevel)
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %d", c.CacheTTLSeconds)
	}
	for name, override := range c.ToolOverrides {
		if override.ModelName == "" {
			return fmt.Errorf("tool_overrides[%s]: model_name is required", name)
		}
		if _, _, err := ParseModelName(override.ModelName); err != nil {
			return fmt.Errorf("tool_overrides[%s]: %w", name, err)
		}
		if override.APIKey != "" && override.ModelName == "" {
			return fmt.Errorf("tool_overrides[%s]: api_key set without model_name", name)
		}
	}
	return nil
}

// ParseModelName splits "provider:model" (e.g. "anthropic:claude-sonnet-4")
// into its two halves.
func ParseModelName(modelName string) (provider, model string, err error) {
	provider, model, ok := strings.Cut(modelName, ":")
	if !ok || provider == "" || model == "" {
		return "", "", fmt.Errorf("invalid model_name %q, want \"provider:model\"", modelName)
	}
	return provider, model, nil
}

// MemoryOverride reports the effective memory override and whether one
// was set at all. When overridden is false, the caller should fall back
// to internal/memory's stored notes for the active database.
func (c *Config) MemoryOverride() (value string, overridden bool) {
	if c.memory == nil {
		return "", false
	}
	return *c.memory, true
}

// EffectiveSystemPrompt returns the configured override, or base when the
// override is unset or whitespace-only (spec §6).
func (c *Config) EffectiveSystemPrompt(base string) string {
	if strings.TrimSpace(c.SystemPrompt) == "" {
		return base
	}
	return c.SystemPrompt
}

// ModelFor resolves the model/API key a given tool should use: its
// tool_overrides entry if present, otherwise the top-level model_name.
func (c *Config) ModelFor(toolName string) (modelName, apiKey string) {
	if override, ok := c.ToolOverrides[toolName]; ok {
		return override.ModelName, override.APIKey
	}
	return c.ModelName, c.APIKey
}

// thinkingBudgets maps each level to a token budget. internal/llm treats
// this purely as an opaque number; the mapping itself is this layer's
// open question, resolved arbitrarily in proportion to the level names.
var thinkingBudgets = map[ThinkingLevel]int{
	ThinkingMinimal: 1024,
	ThinkingLow:     2048,
	ThinkingMedium:  4096,
	ThinkingHigh:    8192,
	ThinkingMaximum: 16384,
}

// ThinkingRequest converts ThinkingEnabled/ThinkingLevel into the shape
// internal/llm's client wires onto the wire request, or nil when thinking
// is not enabled.
func (c *Config) ThinkingRequest() *llm.ThinkingConfig {
	if !c.ThinkingEnabled {
		return nil
	}
	budget := thinkingBudgets[c.ThinkingLevel]
	if budget == 0 {
		budget = thinkingBudgets[ThinkingMedium]
	}
	return &llm.ThinkingConfig{Enabled: true, BudgetTokens: budget}
}
