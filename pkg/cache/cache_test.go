package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Fatal("hit on empty cache")
	}
	if err := c.Set(ctx, "k", []byte("layout"), 0); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "layout" {
		t.Errorf("Get() = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("hit after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("miss before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("hit after expiry")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	p := c.path("k")
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	_ = os.WriteFile(p, []byte("{not json"), 0o644)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() on corrupt entry = %v, %v", hit, err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("hit after Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	l1 := k.LayoutKey("abc", LayoutKeyOpts{Dist: 8})
	l2 := k.LayoutKey("abc", LayoutKeyOpts{Dist: 10})
	if l1 == l2 || !strings.HasPrefix(l1, "layout:") {
		t.Errorf("LayoutKey: %s vs %s", l1, l2)
	}

	s1 := k.SeriesKey("sess", SeriesKeyOpts{Entries: 10})
	s2 := k.SeriesKey("sess", SeriesKeyOpts{Entries: 11})
	if s1 == s2 {
		t.Error("a growing session must get a new key")
	}
	if s1 != k.SeriesKey("sess", SeriesKeyOpts{Entries: 10}) {
		t.Error("SeriesKey not deterministic")
	}

	a1 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("h", ArtifactKeyOpts{Format: "png"})
	if a1 == a2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if k.DurationsKey(DurationsKeyOpts{MinSamples: 2}) == k.DurationsKey(DurationsKeyOpts{MinSamples: 3}) {
		t.Error("Different DurationsKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "db1:")
	inner := NewDefaultKeyer()

	if got, want := scoped.SeriesKey("s", SeriesKeyOpts{}), "db1:"+inner.SeriesKey("s", SeriesKeyOpts{}); got != want {
		t.Errorf("SeriesKey = %s, want %s", got, want)
	}
	if !strings.HasPrefix(scoped.LayoutKey("h", LayoutKeyOpts{}), "db1:layout:") {
		t.Error("LayoutKey not prefixed")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrBackend)
	if !IsRetryable(err) || !errors.Is(err, ErrBackend) {
		t.Error("wrapped error should be retryable and unwrap to ErrBackend")
	}
	if err.Error() != ErrBackend.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrCacheMiss) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	fast := Backoff{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	if err := Retry(ctx, fast, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	if err := Retry(ctx, fast, func() error { calls++; return ErrCacheMiss }); err != ErrCacheMiss || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := Retry(ctx, fast, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrBackend)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, fast, func() error { calls++; return Retryable(ErrBackend) })
	if !errors.Is(err, ErrBackend) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrBackend)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
