// Package config loads gateway configuration from a YAML file and the
// environment.
//
// DESIGN: The environment always wins over the file, and the file always
// wins over built-in defaults. Environment variable references inside YAML
// values (${VAR} or ${VAR:-default}) are expanded before parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all gateway settings.
type Config struct {
	APIKey       string        `yaml:"api_key"`
	DefaultModel string        `yaml:"default_model"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float64       `yaml:"temperature"`
	Budget       BudgetConfig  `yaml:"budget"`
	Storage      StorageConfig `yaml:"storage"`

	// RateLimitRPS caps upstream calls per second. 0 = unlimited.
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
}

// BudgetConfig holds daily spend ceiling settings.
type BudgetConfig struct {
	// Daily is the spending ceiling in USD per calendar day. Zero is a
	// sentinel for "no ceiling", matching an absent DAILY_AI_BUDGET; there
	// is no way to configure a spend-nothing ceiling. Load warns when zero
	// is combined with hard mode.
	Daily float64 `yaml:"daily"`
	// Mode is "advisory" (log and proceed) or "hard" (refuse new calls).
	Mode string `yaml:"mode"`
}

// StorageConfig holds durable state locations.
type StorageConfig struct {
	LedgerPath string `yaml:"ledger_path"`
	CachePath  string `yaml:"cache_path"`
}

// Default returns a config populated with built-in defaults.
func Default() Config {
	return Config{
		DefaultModel: DefaultModel,
		MaxTokens:    DefaultMaxTokens,
		Temperature:  DefaultTemperature,
		Budget:       BudgetConfig{Mode: BudgetModeAdvisory},
		Storage: StorageConfig{
			LedgerPath: stateFile(DefaultLedgerFileName),
			CachePath:  stateFile(DefaultCacheFileName),
		},
	}
}

// Load builds the effective config: defaults, then the YAML file at path (if
// non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- caller-supplied config path
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		expanded := ExpandEnvWithDefaults(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Budget.Mode == BudgetModeHard && cfg.Budget.Daily == 0 {
		log.Warn().Msg("hard budget mode with no daily ceiling configured; calls are unmetered")
	}
	return cfg, nil
}

// FromEnv builds the effective config from defaults plus the environment
// only. This is the path the default application-wide client uses.
func FromEnv() (Config, error) {
	return Load("")
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvDailyBudget); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil {
			// A budget the operator asked for but we cannot honor must not
			// degrade to "unmetered" silently.
			return fmt.Errorf("invalid %s value %q: %w", EnvDailyBudget, v, err)
		}
		c.Budget.Daily = budget
	}
	if v := os.Getenv(EnvBudgetMode); v != "" {
		c.Budget.Mode = v
	}
	if v := os.Getenv(EnvRateLimitRPS); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvRateLimitRPS, v, err)
		}
		c.RateLimitRPS = rps
	}
	if v := os.Getenv(EnvLedgerPath); v != "" {
		c.Storage.LedgerPath = v
	}
	if v := os.Getenv(EnvCachePath); v != "" {
		c.Storage.CachePath = v
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be in [0,1], got %f", c.Temperature)
	}
	if c.Budget.Daily < 0 {
		return fmt.Errorf("budget.daily must be >= 0, got %f", c.Budget.Daily)
	}
	if c.Budget.Mode != BudgetModeAdvisory && c.Budget.Mode != BudgetModeHard {
		return fmt.Errorf("budget.mode must be %q or %q, got %q", BudgetModeAdvisory, BudgetModeHard, c.Budget.Mode)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must be >= 0, got %f", c.RateLimitRPS)
	}
	return nil
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvWithDefaults expands ${VAR} and ${VAR:-default} references in s.
// Unset variables without a default expand to the empty string.
func ExpandEnvWithDefaults(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRefPattern.FindStringSubmatch(ref)
		name, fallback := m[1], m[2]
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		return fallback
	})
}

// stateFile resolves a file name under the per-user state directory.
// Falls back to the working directory when the home directory is unknown.
func stateFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return name
	}
	return filepath.Join(home, ".config", DefaultStateDirName, name)
}

// String renders the config for logs with the API key masked.
func (c Config) String() string {
	key := "unset"
	if strings.TrimSpace(c.APIKey) != "" {
		key = "set"
	}
	return fmt.Sprintf("model=%s max_tokens=%d temperature=%.2f budget=%.2f/%s api_key=%s",
		c.DefaultModel, c.MaxTokens, c.Temperature, c.Budget.Daily, c.Budget.Mode, key)
}
