package recurrence

import (
	"sync"
	"testing"
	"time"
)

func testWindow() Window {
	return Window{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	rule := Daily{Time: TimeOfDay{Hour: 9, Minute: 0}}
	w := testWindow()

	// Cache miss first
	result, found := cache.Get(rule, w, utc, 0)
	if found {
		t.Error("Expected cache miss, got hit")
	}
	if result != nil {
		t.Error("Expected nil result on cache miss")
	}

	instants := Expand(rule, w, utc)
	cache.Set(rule, w, utc, 0, instants)

	// Cache hit
	result, found = cache.Get(rule, w, utc, 0)
	if !found {
		t.Error("Expected cache hit, got miss")
	}
	if len(result) != len(instants) {
		t.Errorf("Expected %d instants, got %d", len(instants), len(result))
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	cache := NewCache(CacheConfig{
		TTL:             100 * time.Millisecond, // Very short TTL for testing
		MaxEntries:      100,
		CleanupInterval: 50 * time.Millisecond,
	})
	defer cache.Close()

	rule := Daily{Time: TimeOfDay{Hour: 9, Minute: 0}}
	w := testWindow()

	cache.Set(rule, w, utc, 0, Expand(rule, w, utc))

	if _, found := cache.Get(rule, w, utc, 0); !found {
		t.Error("Expected cache hit immediately after set")
	}

	// Wait for expiration
	time.Sleep(150 * time.Millisecond)

	if _, found := cache.Get(rule, w, utc, 0); found {
		t.Error("Expected cache miss after TTL expiration")
	}
}

func TestCache_DifferentKeys(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)
	defer cache.Close()

	w := testWindow()
	daily := Daily{Time: TimeOfDay{Hour: 9, Minute: 0}}
	weekly := Weekdays{Time: TimeOfDay{Hour: 9, Minute: 0}, Days: NewWeekdaySet(Monday)}

	cache.Set(daily, w, utc, 0, Expand(daily, w, utc))
	cache.Set(weekly, w, utc, 0, Expand(weekly, w, utc))

	dailyResult, found1 := cache.Get(daily, w, utc, 0)
	weeklyResult, found2 := cache.Get(weekly, w, utc, 0)

	if !found1 || len(dailyResult) != 7 {
		t.Errorf("Expected 7 daily instants, found=%v len=%d", found1, len(dailyResult))
	}
	if !found2 || len(weeklyResult) != 1 {
		t.Errorf("Expected 1 weekly instant, found=%v len=%d", found2, len(weeklyResult))
	}
}

func TestCache_KeyIncludesLimit(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)
	defer cache.Close()

	rule := Every{Interval: 5, Unit: Minutes, Time: TimeOfDay{Hour: 0, Minute: 0}}
	w := testWindow()

	full := Expand(rule, w, utc)
	cache.Set(rule, w, utc, 0, full)

	// A capped lookup must not see the uncapped payload.
	if _, found := cache.Get(rule, w, utc, 100); found {
		t.Error("Expected miss for a different limit")
	}

	cache.Set(rule, w, utc, 100, full[:100])

	capped, found := cache.Get(rule, w, utc, 100)
	if !found || len(capped) != 100 {
		t.Errorf("Expected 100 capped instants, found=%v len=%d", found, len(capped))
	}
	uncapped, found := cache.Get(rule, w, utc, 0)
	if !found || len(uncapped) != len(full) {
		t.Errorf("Expected %d uncapped instants, found=%v len=%d", len(full), found, len(uncapped))
	}
}

func TestCache_KeyIncludesWindowAndTimezone(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)
	defer cache.Close()

	rule := Daily{Time: TimeOfDay{Hour: 9, Minute: 0}}
	w := testWindow()
	cache.Set(rule, w, utc, 0, Expand(rule, w, utc))

	shifted := Window{Start: w.Start.AddDate(0, 0, 1), End: w.End}
	if _, found := cache.Get(rule, shifted, utc, 0); found {
		t.Error("Expected miss for a different window")
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	if _, found := cache.Get(rule, w, NewCalendar(loc), 0); found {
		t.Error("Expected miss for a different timezone")
	}
}

func TestCache_MaxEntriesEviction(t *testing.T) {
	cache := NewCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      5,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	w := testWindow()
	for i := 0; i < 10; i++ {
		rule := Hourly{IntervalHours: i + 1, Time: TimeOfDay{Hour: 9, Minute: 0}}
		cache.Set(rule, w, utc, 0, Expand(rule, w, utc))
	}

	stats := cache.Stats()
	if stats.TotalEntries > 5 {
		t.Errorf("Expected at most 5 entries after eviction, got %d", stats.TotalEntries)
	}
}

func TestCache_Stats(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)
	defer cache.Close()

	stats := cache.Stats()
	if stats.TotalEntries != 0 || stats.ActiveEntries != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	rule := Daily{Time: TimeOfDay{Hour: 9, Minute: 0}}
	w := testWindow()
	cache.Set(rule, w, utc, 0, Expand(rule, w, utc))

	stats = cache.Stats()
	if stats.TotalEntries != 1 || stats.ActiveEntries != 1 {
		t.Errorf("Expected one active entry, got %+v", stats)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)
	defer cache.Close()

	w := testWindow()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rule := Every{Interval: n + 1, Unit: Hours, Time: TimeOfDay{Hour: 0, Minute: 0}}
			for j := 0; j < 50; j++ {
				cache.Set(rule, w, utc, 0, Expand(rule, w, utc))
				// Misses are legal here (eviction races the Get); the
				// point is that concurrent access does not corrupt state.
				cache.Get(rule, w, utc, 0)
			}
		}(i)
	}
	wg.Wait()
}

func TestCache_CloseClearsEntries(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)

	rule := Daily{Time: TimeOfDay{Hour: 9, Minute: 0}}
	w := testWindow()
	cache.Set(rule, w, utc, 0, Expand(rule, w, utc))

	cache.Close()

	stats := cache.Stats()
	if stats.TotalEntries != 0 {
		t.Errorf("Expected no entries after Close, got %d", stats.TotalEntries)
	}
}
