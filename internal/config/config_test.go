package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.Equal(t, defaultCacheTTLSeconds, c.CacheTTLSeconds)
	require.False(t, c.ThinkingEnabled)
	_, overridden := c.MemoryOverride()
	require.False(t, overridden)
}

func TestAPIKeyWithoutModelNameIsConfigurationError(t *testing.T) {
	_, err := New(WithAPIKey("sk-123"))
	require.Error(t, err)
}

func TestInvalidModelNameShapeIsRejected(t *testing.T) {
	_, err := New(WithModel("claude-sonnet-4"))
	require.Error(t, err)
}

func TestValidModelNameParses(t *testing.T) {
	c, err := New(WithModel("anthropic:claude-sonnet-4"), WithAPIKey("sk-123"))
	require.NoError(t, err)
	provider, model, err := ParseModelName(c.ModelName)
	require.NoError(t, err)
	require.Equal(t, "anthropic", provider)
	require.Equal(t, "claude-sonnet-4", model)
}

func TestThinkingLevelImpliesEnabled(t *testing.T) {
	c, err := New(WithThinking(ThinkingHigh))
	require.NoError(t, err)
	require.True(t, c.ThinkingEnabled)
	require.Equal(t, ThinkingHigh, c.ThinkingLevel)
}

func TestUnknownThinkingLevelIsRejected(t *testing.T) {
	_, err := New(func(c *Config) { c.ThinkingLevel = "extreme" })
	require.Error(t, err)
}

func TestEmptyMemoryOverrideDisablesInjectionButIsDistinctFromUnset(t *testing.T) {
	unset, err := New()
	require.NoError(t, err)
	_, overridden := unset.MemoryOverride()
	require.False(t, overridden)

	cleared, err := New(WithMemory(""))
	require.NoError(t, err)
	value, overridden := cleared.MemoryOverride()
	require.True(t, overridden)
	require.Empty(t, value)
}

func TestEffectiveSystemPromptFallsBackOnWhitespaceOnly(t *testing.T) {
	c, err := New(WithSystemPrompt("   \n\t  "))
	require.NoError(t, err)
	require.Equal(t, "base prompt", c.EffectiveSystemPrompt("base prompt"))

	c, err = New(WithSystemPrompt("custom prompt"))
	require.NoError(t, err)
	require.Equal(t, "custom prompt", c.EffectiveSystemPrompt("base prompt"))
}

func TestToolOverrideRoutesOnlyThatTool(t *testing.T) {
	c, err := New(
		WithModel("anthropic:claude-sonnet-4"),
		WithAPIKey("sk-main"),
		WithToolOverride("viz", ToolOverride{ModelName: "openai:gpt-5-mini", APIKey: "sk-viz"}),
	)
	require.NoError(t, err)

	model, key := c.ModelFor("viz")
	require.Equal(t, "openai:gpt-5-mini", model)
	require.Equal(t, "sk-viz", key)

	model, key = c.ModelFor("execute_sql")
	require.Equal(t, "anthropic:claude-sonnet-4", model)
	require.Equal(t, "sk-main", key)
}

func TestToolOverrideMissingModelNameIsRejected(t *testing.T) {
	_, err := New(WithToolOverride("viz", ToolOverride{APIKey: "sk-viz"}))
	require.Error(t, err)
}

func TestNonPositiveCacheTTLIsRejected(t *testing.T) {
	_, err := New(WithCacheTTL(0))
	require.Error(t, err)
}

func TestThinkingRequestIsNilWhenDisabled(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.Nil(t, c.ThinkingRequest())
}

func TestThinkingRequestMapsEachLevelToADistinctBudget(t *testing.T) {
	seen := make(map[int]bool)
	for _, level := range []ThinkingLevel{ThinkingMinimal, ThinkingLow, ThinkingMedium, ThinkingHigh, ThinkingMaximum} {
		c, err := New(WithThinking(level))
		require.NoError(t, err)
		req := c.ThinkingRequest()
		require.NotNil(t, req)
		require.True(t, req.Enabled)
		require.Greater(t, req.BudgetTokens, 0)
		require.False(t, seen[req.BudgetTokens], "budget for %s collided with another level", level)
		seen[req.BudgetTokens] = true
	}
}

func TestThinkingRequestBudgetGrowsWithLevel(t *testing.T) {
	low, err := New(WithThinking(ThinkingLow))
	require.NoError(t, err)
	high, err := New(WithThinking(ThinkingHigh))
	require.NoError(t, err)
	require.Less(t, low.ThinkingRequest().BudgetTokens, high.ThinkingRequest().BudgetTokens)
}
