// Package pricing maps model identifiers to per-million-token rates and
// computes per-call cost from reported token counts.
//
// DESIGN: Unknown models are a hard error. Silently defaulting to a zero or
// guessed rate would corrupt the usage ledger, so Cost fails loudly and the
// caller decides what to do.
package pricing

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// ModelPricing holds per-million-token pricing for a model.
type ModelPricing struct {
	InputPerMTok  float64 // USD per million input tokens
	OutputPerMTok float64 // USD per million output tokens
}

// UnknownModelError reports a cost computation against an unregistered model.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("no pricing registered for model %q", e.Model)
}

// costPrecision is the number of decimal places costs are rounded to.
// Sub-cent rounding drift accumulates across many small calls otherwise.
const costPrecision = 4

var (
	mu sync.RWMutex

	// modelPricingTable maps exact model names to their pricing.
	modelPricingTable = map[string]ModelPricing{
		// Claude 4.x (dated)
		"claude-opus-4-6":            {InputPerMTok: 5, OutputPerMTok: 25},
		"claude-opus-4-0-20250514":   {InputPerMTok: 15, OutputPerMTok: 75},
		"claude-sonnet-4-5-20250929": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-sonnet-4-0-20250514": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-haiku-4-5-20251001":  {InputPerMTok: 1, OutputPerMTok: 5},

		// Claude short aliases
		"claude-sonnet-4-5": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-sonnet-4-0": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-haiku-4-5":  {InputPerMTok: 1, OutputPerMTok: 5},

		// Claude 3.x
		"claude-3-5-sonnet-20241022": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-3-5-haiku-20241022":  {InputPerMTok: 1, OutputPerMTok: 5},
		"claude-3-haiku-20240307":    {InputPerMTok: 0.25, OutputPerMTok: 1.25},
	}

	// modelFamilyPricing maps model family prefixes to pricing.
	// Longest prefix wins so e.g. "claude-opus" ($15) never shadows
	// "claude-opus-4-6" ($5).
	modelFamilyPricing = map[string]ModelPricing{
		"claude-opus-4-6":   {InputPerMTok: 5, OutputPerMTok: 25},
		"claude-opus-4-0":   {InputPerMTok: 15, OutputPerMTok: 75},
		"claude-sonnet-4-5": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-sonnet-4-0": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-haiku-4-5":  {InputPerMTok: 1, OutputPerMTok: 5},
		"claude-3-5-sonnet": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-3-5-haiku":  {InputPerMTok: 1, OutputPerMTok: 5},
		"claude-3-haiku":    {InputPerMTok: 0.25, OutputPerMTok: 1.25},

		// Broad families (fallback)
		"claude-opus":   {InputPerMTok: 15, OutputPerMTok: 75},
		"claude-sonnet": {InputPerMTok: 3, OutputPerMTok: 15},
		"claude-haiku":  {InputPerMTok: 1, OutputPerMTok: 5},
	}
)

// Register adds or replaces pricing for an exact model name.
func Register(model string, p ModelPricing) {
	mu.Lock()
	defer mu.Unlock()
	modelPricingTable[model] = p
}

// Lookup returns pricing for a model.
// Tries exact match, then prefix/family match (longest prefix wins).
func Lookup(model string) (ModelPricing, error) {
	mu.RLock()
	defer mu.RUnlock()

	if p, ok := modelPricingTable[model]; ok {
		return p, nil
	}

	bestPrefix := ""
	var bestPricing ModelPricing
	for prefix, p := range modelFamilyPricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			bestPricing = p
		}
	}
	if bestPrefix != "" {
		return bestPricing, nil
	}

	return ModelPricing{}, &UnknownModelError{Model: model}
}

// Cost computes the USD cost of a call from token counts, rounded to
// costPrecision decimal places.
func Cost(model string, inputTokens, outputTokens int) (float64, error) {
	p, err := Lookup(model)
	if err != nil {
		return 0, err
	}
	inputCost := float64(inputTokens) / 1_000_000 * p.InputPerMTok
	outputCost := float64(outputTokens) / 1_000_000 * p.OutputPerMTok
	return round(inputCost + outputCost), nil
}

func round(cost float64) float64 {
	shift := math.Pow10(costPrecision)
	return math.Round(cost*shift) / shift
}
