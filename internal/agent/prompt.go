package agent

import (
	"fmt"
	"strings"
)

// ModelFamily selects which base system-prompt template to render (spec
// §4.6.1 step 1: "distinct templates for Claude-class vs GPT-class
// models"), grounded on the reference agent's per-model-family branch
// (GPT_5 vs SONNET_4_5 templates in pydantic_ai_agent.py).
type ModelFamily string

const (
	FamilyClaude ModelFamily = "claude"
	FamilyGPT    ModelFamily = "gpt"
)

const claudeBaseTemplate = `You are SQLsaber, a natural-language SQL assistant connected to a %s database.

Use the introspection tools to understand the schema before writing queries. Prefer execute_sql for anything that touches data; call list_tables and introspect_schema first when you are unsure what exists. Keep answers grounded in what the tools actually return.`

const gptBaseTemplate = `SQLsaber: a SQL assistant for a %s database.

Rules:
- Inspect the schema (list_tables, introspect_schema) before guessing at table or column names.
- Use execute_sql for all data access.
- Ground every answer in tool output, not assumption.`

const dangerousModeRider = `
Dangerous mode is enabled for this session: execute_sql will also run INSERT/UPDATE/DELETE/DDL statements. Every statement still runs inside a transaction that is rolled back afterward, so no change is ever persisted — use this only to inspect what a write *would* do.`

const memorySectionMarker = "## Remembered context for this database"

// MemorySource supplies the per-database free-form notes injected into
// the prompt (spec §4.6.1 step 3). Declared as an interface so prompt.go
// doesn't need to import internal/memory directly.
type MemorySource interface {
	FormatForPrompt(databaseName string) string
}

// PromptConfig is everything system prompt assembly needs, held by the
// Orchestrator and re-read on every run (spec §4.6.1: "Dynamic system
// prompt rebuild on each top-level run").
type PromptConfig struct {
	ModelFamily    ModelFamily
	DatabaseType   string
	DangerousMode  bool
	DatabaseName   string
	MemoryOverride *string
	Memory         MemorySource

	// BaseTemplateOverride, when non-empty, replaces only the rendered base
	// template (claudeBaseTemplate/gptBaseTemplate) — the dangerous-mode
	// rider and memory section still apply on top of it. Backs the
	// `system_prompt` config key (spec §6: "replaces the built-in base
	// template"), which is a separate layer from the rider/memory (spec
	// §4.6.1 steps 2-4).
	BaseTemplateOverride string

	// FullOverride, when non-empty, is used verbatim as the entire system
	// prompt: no base template, no dangerous-mode rider, no memory section.
	// Backs the visualization sub-agent's fixed prompt, which has no
	// model-family, dangerous-mode, or per-database notion of its own.
	FullOverride string
}

// SystemPromptText is the single source of truth for the system prompt,
// re-invoked at the start of every run rather than assembled piecemeal at
// multiple call sites (DESIGN NOTES §9 "dynamic system-prompt rebuild").
// includeMemory lets a caller (e.g. the viz sub-agent, which has no
// per-database memory of its own) opt out of step 3/4 entirely.
func SystemPromptText(cfg PromptConfig, includeMemory bool) string {
	if cfg.FullOverride != "" {
		return cfg.FullOverride
	}

	base := cfg.BaseTemplateOverride
	if base == "" {
		base = baseTemplate(cfg.ModelFamily, cfg.DatabaseType)
	}

	if cfg.DangerousMode {
		base += dangerousModeRider
	}

	if !includeMemory {
		return base
	}

	memoryText := resolveMemoryText(cfg)
	if memoryText == "" {
		return base
	}
	return fmt.Sprintf("%s\n\n%s\n%s\n", memorySectionMarker, memoryText, base)
}

func baseTemplate(family ModelFamily, dbType string) string {
	if dbType == "" {
		dbType = "SQL"
	}
	switch family {
	case FamilyGPT:
		return fmt.Sprintf(gptBaseTemplate, dbType)
	default:
		return fmt.Sprintf(claudeBaseTemplate, dbType)
	}
}

// resolveMemoryText implements step 3: an explicit override (even an
// empty string) always wins over the per-database store, matching the
// reference implementation's "verbatim if present" semantics.
func resolveMemoryText(cfg PromptConfig) string {
	if cfg.MemoryOverride != nil {
		return strings.TrimSpace(*cfg.MemoryOverride)
	}
	if cfg.Memory == nil || cfg.DatabaseName == "" {
		return ""
	}
	return strings.TrimSpace(cfg.Memory.FormatForPrompt(cfg.DatabaseName))
}
