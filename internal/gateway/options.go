package gateway

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/relaywise/llmgate/internal/config"
)

// Options are per-call overrides. Zero values fall back to the client
// config's defaults.
type Options struct {
	// Model overrides the configured default model.
	Model string

	// MaxTokens overrides the configured completion ceiling.
	MaxTokens int

	// Temperature overrides the configured sampling temperature. A pointer
	// so that an explicit 0 is distinguishable from "use the default".
	Temperature *float64

	// System is the system prompt. When empty, the upstream request carries
	// no system field at all.
	System string

	// UseCache opts this call into the response cache for both read and
	// write. Without it the cache is bypassed entirely, even when an entry
	// for this request already exists.
	UseCache bool

	// Limiter, when set, is waited on before each upstream call, overriding
	// the client's config-level limiter. Cache hits never wait.
	Limiter *rate.Limiter
}

// Float64 returns a pointer to v, for explicit Temperature overrides.
func Float64(v float64) *float64 {
	return &v
}

// resolved holds an Options with every default applied.
type resolved struct {
	Model       string
	MaxTokens   int
	Temperature float64
	System      string
	UseCache    bool
	Limiter     *rate.Limiter
}

// resolve validates per-call overrides and applies defaults from cfg.
func (o Options) resolve(cfg config.Config) (resolved, error) {
	r := resolved{
		Model:       o.Model,
		MaxTokens:   o.MaxTokens,
		Temperature: cfg.Temperature,
		System:      o.System,
		UseCache:    o.UseCache,
		Limiter:     o.Limiter,
	}
	if r.Model == "" {
		r.Model = cfg.DefaultModel
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = cfg.MaxTokens
	}
	if o.Temperature != nil {
		r.Temperature = *o.Temperature
	}

	if r.MaxTokens <= 0 {
		return r, fmt.Errorf("max tokens must be > 0, got %d", r.MaxTokens)
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return r, fmt.Errorf("temperature must be in [0,1], got %f", r.Temperature)
	}
	return r, nil
}
