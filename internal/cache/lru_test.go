package cache

import (
	"sync/atomic"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLRUEviction(t *testing.T) {
	c := NewLRU[string](3, time.Hour)

	c.Set("2024", "a")
	c.Set("2025", "b")
	c.Set("2026", "c")
	c.Get("2024") // 2025 is now least recently used
	c.Set("2027", "d")

	if _, ok := c.Get("2025"); ok {
		t.Error("2025 should have been evicted")
	}
	for _, k := range []string{"2024", "2026", "2027"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRUExpiration(t *testing.T) {
	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := NewLRU[int](10, time.Minute).WithClock(clk.now)

	c.Set("k", 1)
	if v, ok := c.Get("k"); !ok || v != 1 {
		t.Fatalf("Get() = %d, %v; want 1, true", v, ok)
	}

	clk.advance(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed on read, Len() = %d", c.Len())
	}
}

func TestLRUCleanExpired(t *testing.T) {
	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := NewLRU[int](10, time.Minute).WithClock(clk.now)

	c.Set("old1", 1)
	c.Set("old2", 2)
	clk.advance(45 * time.Second)
	c.Set("fresh", 3)
	clk.advance(30 * time.Second)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d, want 2", n)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry was removed")
	}
}

func TestLRUGetOrComputeAndStats(t *testing.T) {
	c := NewLRU[string](4, time.Hour)
	calls := 0
	compute := func() string { calls++; return "v" }

	c.GetOrCompute("k", compute)
	c.GetOrCompute("k", compute)

	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Size != 1 {
		t.Errorf("Stats() = %+v", st)
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d", c.Len())
	}
}

type countingCleaner struct{ n atomic.Int32 }

func (c *countingCleaner) CleanExpired() int { c.n.Add(1); return 1 }

func TestJanitorSweep(t *testing.T) {
	var reported int
	j := NewJanitor(func(n int) { reported += n })
	a, b := &countingCleaner{}, &countingCleaner{}
	j.Register(a)
	j.Register(b)

	if got := j.Sweep(); got != 2 {
		t.Errorf("Sweep() = %d, want 2", got)
	}
	if reported != 2 {
		t.Errorf("onSweep got %d, want 2", reported)
	}
}

func TestJanitorStartStop(t *testing.T) {
	j := NewJanitor(nil)
	c := &countingCleaner{}
	j.Register(c)

	j.Start(5 * time.Millisecond)
	j.Start(5 * time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for c.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	j.Stop()
	j.Stop()

	if c.n.Load() == 0 {
		t.Error("janitor never swept")
	}
}
