// Package gateway orchestrates calls to a generative-text API behind a
// content-addressed response cache and a daily spending ledger.
//
// DESIGN: Within one call the order is fixed: cache lookup, budget check,
// upstream call, cost computation, ledger write, cache write. A cache hit is
// free: no upstream call, no cost, no budget check. Usage is recorded before
// the call returns so accounting never lags behind what the caller has
// already seen.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/relaywise/llmgate/internal/cache"
	"github.com/relaywise/llmgate/internal/config"
	"github.com/relaywise/llmgate/internal/extract"
	"github.com/relaywise/llmgate/internal/ledger"
	"github.com/relaywise/llmgate/internal/pricing"
	"github.com/relaywise/llmgate/internal/transport"
)

// jsonInstruction is appended to the system prompt by GenerateJSON.
const jsonInstruction = "Respond with valid JSON only. Do not include any prose, markdown fences, or explanation outside the JSON."

// Client coordinates the response cache, the pricing table, the usage
// ledger, and the upstream transport.
type Client struct {
	cfg     config.Config
	tr      transport.Transport
	led     *ledger.Ledger
	store   *cache.Store
	limiter *rate.Limiter
}

// New builds a client from explicitly constructed collaborators. When
// cfg.RateLimitRPS is set, upstream calls share one limiter; a per-call
// Options.Limiter overrides it.
func New(cfg config.Config, tr transport.Transport, led *ledger.Ledger, store *cache.Store) *Client {
	c := &Client{cfg: cfg, tr: tr, led: led, store: store}
	if cfg.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}
	return c
}

// Open builds a client, opening the ledger and cache at the locations named
// by cfg.Storage.
func Open(cfg config.Config, tr transport.Transport) (*Client, error) {
	store, err := cache.Open(cfg.Storage.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open response cache: %w", err)
	}
	return New(cfg, tr, ledger.New(cfg.Storage.LedgerPath), store), nil
}

// Close releases the cache's database handle.
func (c *Client) Close() error {
	return c.store.Close()
}

// UsageStats returns the ledger record for a date, zeroed when none exists.
func (c *Client) UsageStats(date string) ledger.DayStats {
	return c.led.StatsFor(date)
}

// ResetUsage clears the entire ledger, all days included.
func (c *Client) ResetUsage() error {
	return c.led.Reset()
}

// Cache exposes the response cache for maintenance operations (pruning).
func (c *Client) Cache() *cache.Store {
	return c.store
}

// GenerateText sends a prompt upstream, or serves it from the response cache
// when opts.UseCache is set and a matching entry exists.
func (c *Client) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt must not be empty")
	}
	r, err := opts.resolve(c.cfg)
	if err != nil {
		return "", err
	}

	reqID := uuid.NewString()

	// The fingerprint is computed once on the lookup path and reused for the
	// store after a miss.
	var fp string
	if r.UseCache {
		fp = cache.Fingerprint(cache.Key{
			Prompt:      prompt,
			Model:       r.Model,
			Temperature: r.Temperature,
			System:      r.System,
			MaxTokens:   r.MaxTokens,
		})
		entry, hit, err := c.store.Lookup(fp)
		if err != nil {
			// A broken cache read degrades to a miss.
			log.Warn().Err(err).Str("request_id", reqID).Msg("cache lookup failed, treating as miss")
		} else if hit {
			log.Debug().
				Str("request_id", reqID).
				Str("model", r.Model).
				Str("fingerprint", fp[:12]).
				Msg("cache hit")
			return entry.Response.Text, nil
		}
	}

	today := ledger.Today()
	if remaining, metered := c.led.RemainingBudget(today, c.cfg.Budget.Daily); metered && remaining <= 0 {
		spent := c.led.StatsFor(today).TotalCost
		if c.cfg.Budget.Mode == config.BudgetModeHard {
			return "", &BudgetExceededError{Date: today, Budget: c.cfg.Budget.Daily, Spent: spent}
		}
		log.Warn().
			Str("request_id", reqID).
			Float64("spent", spent).
			Float64("budget", c.cfg.Budget.Daily).
			Msg("daily budget exhausted, proceeding (advisory mode)")
	}

	limiter := r.Limiter
	if limiter == nil {
		limiter = c.limiter
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait canceled: %w", err)
		}
	}

	start := time.Now()
	comp, err := c.tr.Complete(ctx, transport.Request{
		Model:       r.Model,
		Prompt:      prompt,
		System:      r.System,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	})
	if err != nil {
		return "", &UpstreamError{Provider: c.tr.Name(), Err: err}
	}
	latency := time.Since(start)

	model := comp.Model
	if model == "" {
		model = r.Model
	}
	cost, err := pricing.Cost(model, comp.InputTokens, comp.OutputTokens)
	if err != nil {
		return "", err
	}

	// Fail-open: a broken ledger degrades accounting, never the call.
	if err := c.led.Record(today, model, cost); err != nil {
		log.Warn().Err(err).Str("request_id", reqID).Msg("failed to record usage")
	}

	if r.UseCache {
		entry := cache.Entry{
			Timestamp: time.Now(),
			Response: cache.Response{
				Text:             comp.Text,
				PromptTokens:     comp.InputTokens,
				CompletionTokens: comp.OutputTokens,
				TotalCost:        cost,
				Model:            model,
				LatencyMs:        latency.Milliseconds(),
			},
		}
		// Fail-closed as if caching had been disabled for this call: the
		// upstream result is still returned.
		if err := c.store.Put(fp, entry); err != nil {
			log.Warn().Err(err).Str("request_id", reqID).Msg("failed to store cache entry")
		}
	}

	log.Info().
		Str("request_id", reqID).
		Str("model", model).
		Int("input_tokens", comp.InputTokens).
		Int("output_tokens", comp.OutputTokens).
		Float64("cost", cost).
		Dur("latency", latency).
		Msg("completion")

	return comp.Text, nil
}

// GenerateJSON wraps GenerateText with a JSON-only system instruction,
// extracts the JSON document from the returned text, and unmarshals it into
// v. Extraction failures surface as *extract.ExtractionError, a distinct
// kind from *UpstreamError.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, opts Options, v any) error {
	if opts.System == "" {
		opts.System = jsonInstruction
	} else {
		opts.System = opts.System + "\n\n" + jsonInstruction
	}

	text, err := c.GenerateText(ctx, prompt, opts)
	if err != nil {
		return err
	}
	return extract.Into(text, v)
}
