package recurrence

import (
	"context"
	"log/slog"
	"time"
)

// Engine is a caching, strategy-driven front end over Expand. It picks
// the frequency class for each rule, expands over that class's window
// with its cap, and memoizes results so that widget refreshes and
// repeated schedule queries don't redo the calendar arithmetic.
//
// The zero value is not usable; construct with NewEngine or
// NewEngineWithConfig.
type Engine struct {
	cal    Calendar
	cache  *Cache
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates an engine with the default configuration.
func NewEngine(cal Calendar, logger *slog.Logger) *Engine {
	return NewEngineWithConfig(cal, DefaultEngineConfig, logger)
}

// NewEngineWithConfig creates an engine with custom configuration.
// A nil logger falls back to slog.Default.
func NewEngineWithConfig(cal Calendar, config EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	var cache *Cache
	if config.CacheEnabled {
		cache = NewCache(config.CacheConfig)
	}

	return &Engine{
		cal:    cal,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// Upcoming returns the rule's occurrences from now forward, bounded by
// the rule's frequency class: the class's window duration ahead of now,
// capped at the class's maximum count.
func (e *Engine) Upcoming(r Rule, now time.Time) []time.Time {
	return e.UpcomingContext(context.Background(), r, now)
}

// UpcomingContext is Upcoming with cancellation threaded into the
// expansion loops. Cancelled expansions are returned but not cached.
func (e *Engine) UpcomingContext(ctx context.Context, r Rule, now time.Time) []time.Time {
	strategy := Classify(r)
	window := Window{Start: now, End: now.Add(strategy.WindowDuration())}
	limit := strategy.MaxAlarms()

	if e.cache != nil {
		if instants, ok := e.cache.Get(r, window, e.cal, limit); ok {
			e.logger.Debug("expansion cache hit",
				"rule", r.String(),
				"strategy", strategy.String(),
				"count", len(instants))
			return instants
		}
	}

	instants := ExpandContext(ctx, r, window, e.cal)
	if limit > 0 && len(instants) > limit {
		instants = instants[:limit]
	}

	if e.cache != nil && ctx.Err() == nil {
		e.cache.Set(r, window, e.cal, limit, instants)
	}

	e.logger.Debug("expanded rule",
		"rule", r.String(),
		"strategy", strategy.String(),
		"window_end", window.End,
		"count", len(instants))

	return instants
}

// Expand runs a plain windowed expansion through the engine's calendar
// and cache, without strategy-derived bounds. Uncapped results are
// cached separately from Upcoming's capped ones, so mixing the two
// entry points on one window never truncates or inflates either.
func (e *Engine) Expand(r Rule, w Window) []time.Time {
	if e.cache != nil {
		if instants, ok := e.cache.Get(r, w, e.cal, 0); ok {
			return instants
		}
	}
	instants := Expand(r, w, e.cal)
	if e.cache != nil {
		e.cache.Set(r, w, e.cal, 0, instants)
	}
	return instants
}

// NeedsRefresh reports whether a previously generated schedule for the
// rule has gone stale and should be re-expanded: no pending instants
// remain, fewer than the class's minimum remain, or the last pending
// instant is closer than the class's regeneration threshold. The check
// is advisory; re-expanding early is always safe because expansion is
// idempotent. Rules whose class window naturally holds fewer instants
// than the minimum (a yearly alarm in a 7-day window) always report
// stale.
func (e *Engine) NeedsRefresh(r Rule, scheduled []time.Time, now time.Time) bool {
	strategy := Classify(r)

	pending := 0
	var last time.Time
	for _, t := range scheduled {
		if t.After(now) {
			pending++
			if t.After(last) {
				last = t
			}
		}
	}

	if pending == 0 || pending < strategy.MinimumAlarmCount() {
		return true
	}
	return last.Sub(now) < strategy.RegenerationThreshold()
}

// Close releases the engine's cache resources, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats reports the cache occupancy, or the zero stats when
// caching is disabled.
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}
