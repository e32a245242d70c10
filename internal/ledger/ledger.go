// Package ledger persists per-day request counts and API spend to a JSON
// file.
//
// DESIGN: The whole ledger is a single JSON document, loaded and rewritten on
// every update. A single in-process mutex serializes the read-modify-write
// cycle; multi-process writers sharing one file are last-write-wins. Reads
// are fail-open: a missing or corrupt file is logged and treated as empty so
// accounting degradation never blocks a call.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DateFormat is the calendar-day key format (machine-local date).
const DateFormat = "2006-01-02"

// DayStats is the accumulated usage for one calendar day.
type DayStats struct {
	TotalCost    float64            `json:"total_cost"`
	RequestCount int                `json:"request_count"`
	PerModelCost map[string]float64 `json:"per_model_cost,omitempty"`
}

// fileLayout is the on-disk shape of the ledger.
type fileLayout struct {
	DailyUsage map[string]DayStats `json:"daily_usage"`
	TotalCost  float64             `json:"total_cost"`
}

// Ledger is a file-backed daily usage ledger.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// New creates a ledger backed by the given file path. The file is created
// lazily on first write.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Today returns the current machine-local date key.
func Today() string {
	return time.Now().Format(DateFormat)
}

// Record adds one completed call's cost to the given day and persists the
// ledger. The day's record is created on first use.
func (l *Ledger) Record(date, model string, cost float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := l.loadLocked()

	day := data.DailyUsage[date]
	if day.PerModelCost == nil {
		day.PerModelCost = make(map[string]float64)
	}
	day.TotalCost += cost
	day.RequestCount++
	day.PerModelCost[model] += cost
	data.DailyUsage[date] = day
	data.TotalCost += cost

	return l.persistLocked(data)
}

// StatsFor returns the usage record for a date, or a zeroed record when none
// exists. It never fails for an unknown date.
func (l *Ledger) StatsFor(date string) DayStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	day, ok := l.loadLocked().DailyUsage[date]
	if !ok {
		return DayStats{}
	}
	return day
}

// TotalCost returns the all-time running total across all days.
func (l *Ledger) TotalCost() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked().TotalCost
}

// Reset replaces the entire ledger, all days included, with an empty one and
// persists it.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(&fileLayout{
		DailyUsage: map[string]DayStats{},
		TotalCost:  0,
	})
}

// RemainingBudget returns dailyBudget minus the date's spend, which may be
// negative. ok is false when dailyBudget <= 0, meaning no ceiling is
// configured.
func (l *Ledger) RemainingBudget(date string, dailyBudget float64) (remaining float64, ok bool) {
	if dailyBudget <= 0 {
		return 0, false
	}
	return dailyBudget - l.StatsFor(date).TotalCost, true
}

// loadLocked reads the ledger file. A missing, unreadable, or corrupt file
// degrades to an empty ledger rather than failing the caller.
func (l *Ledger) loadLocked() *fileLayout {
	empty := &fileLayout{DailyUsage: map[string]DayStats{}}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", l.path).Msg("usage ledger unreadable, proceeding as empty")
		}
		return empty
	}

	var data fileLayout
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn().Err(err).Str("path", l.path).Msg("usage ledger corrupt, proceeding as empty")
		return empty
	}
	if data.DailyUsage == nil {
		data.DailyUsage = map[string]DayStats{}
	}
	return &data
}

func (l *Ledger) persistLocked(data *fileLayout) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode usage ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	if err := os.WriteFile(l.path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write usage ledger: %w", err)
	}
	return nil
}
