// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined here.
// This makes configuration more maintainable and auditable.
package config

// =============================================================================
// GENERATION DEFAULTS
// =============================================================================

// DefaultModel is used when a call does not name a model.
const DefaultModel = "claude-sonnet-4-5"

// DefaultMaxTokens is the completion token ceiling when unset.
const DefaultMaxTokens = 4096

// DefaultTemperature is the sampling temperature when unset.
const DefaultTemperature = 0.7

// =============================================================================
// BUDGET
// =============================================================================

// Budget enforcement modes. Advisory logs a warning once the daily budget is
// exhausted but still issues the call; hard refuses new upstream calls.
const (
	BudgetModeAdvisory = "advisory"
	BudgetModeHard     = "hard"
)

// =============================================================================
// ENVIRONMENT VARIABLES
// =============================================================================

// EnvAPIKey is the upstream credential, required at first client use.
const EnvAPIKey = "ANTHROPIC_API_KEY"

// EnvDailyBudget is the daily spending ceiling in USD. Absent or zero means
// unmetered; a malformed value is a configuration error, never silently
// ignored.
const EnvDailyBudget = "DAILY_AI_BUDGET"

// EnvBudgetMode selects advisory or hard enforcement.
const EnvBudgetMode = "LLMGATE_BUDGET_MODE"

// EnvRateLimitRPS caps upstream calls per second. Absent or zero means
// unlimited.
const EnvRateLimitRPS = "LLMGATE_RATE_LIMIT_RPS"

// EnvLedgerPath overrides the usage ledger file location.
const EnvLedgerPath = "LLMGATE_LEDGER_PATH"

// EnvCachePath overrides the response cache database location.
const EnvCachePath = "LLMGATE_CACHE_PATH"

// =============================================================================
// STORAGE
// =============================================================================

// DefaultStateDirName is the per-user state directory under ~/.config.
const DefaultStateDirName = "llmgate"

// DefaultLedgerFileName is the usage ledger file name.
const DefaultLedgerFileName = "usage.json"

// DefaultCacheFileName is the response cache database file name.
const DefaultCacheFileName = "cache.db"
