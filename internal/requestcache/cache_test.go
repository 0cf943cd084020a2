package requestcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"anitransfer/internal/services"
)

func TestStoreAndLookupRoundTrip(t *testing.T) {
	cache := New(t.TempDir(), true, nil)

	payload := []byte(`{"data":[{"mal_id":1}]}`)
	if err := cache.Store(KindSearch, StringKey("Cowboy Bebop"), payload, time.Time{}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	envelope, hit, err := cache.Lookup(KindSearch, StringKey("Cowboy Bebop"))
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if string(envelope.Payload) != string(payload) {
		t.Fatalf("payload mismatch: got %s", envelope.Payload)
	}
}

func TestLookupMissForUnknownKey(t *testing.T) {
	cache := New(t.TempDir(), true, nil)

	_, hit, err := cache.Lookup(KindDetail, IDKey(42))
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if hit {
		t.Fatal("expected cache miss")
	}
}

func TestUnsupportedKindIsAnError(t *testing.T) {
	cache := New(t.TempDir(), true, nil)

	if _, _, err := cache.Lookup(Kind("manga_search"), "x"); !errors.Is(err, services.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
	if err := cache.Store(Kind("manga_search"), "x", nil, time.Time{}); !errors.Is(err, services.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestExpiredEntryMissesWhenExpiryEnforced(t *testing.T) {
	now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := WithClock(func() time.Time { return now })

	cache := New(t.TempDir(), false, nil, clock)
	expired := now.Add(-time.Hour)
	if err := cache.Store(KindSearch, StringKey("old"), []byte(`{}`), expired); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if _, hit, err := cache.Lookup(KindSearch, StringKey("old")); err != nil || hit {
		t.Fatalf("expected miss for expired entry, hit=%v err=%v", hit, err)
	}
}

func TestExpiredEntryServedWhenExpiryIgnored(t *testing.T) {
	now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := WithClock(func() time.Time { return now })

	cache := New(t.TempDir(), true, nil, clock)
	expired := now.Add(-time.Hour)
	if err := cache.Store(KindSearch, StringKey("old"), []byte(`{"stale":true}`), expired); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if _, hit, err := cache.Lookup(KindSearch, StringKey("old")); err != nil || !hit {
		t.Fatalf("expected stale entry to be served, hit=%v err=%v", hit, err)
	}
}

func TestStoreOverwrites(t *testing.T) {
	cache := New(t.TempDir(), true, nil)
	key := StringKey("Trigun")

	if err := cache.Store(KindSearch, key, []byte(`{"v":1}`), time.Time{}); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	if err := cache.Store(KindSearch, key, []byte(`{"v":2}`), time.Time{}); err != nil {
		t.Fatalf("second Store: %v", err)
	}

	envelope, hit, err := cache.Lookup(KindSearch, key)
	if err != nil || !hit {
		t.Fatalf("Lookup failed: hit=%v err=%v", hit, err)
	}
	if string(envelope.Payload) != `{"v":2}` {
		t.Fatalf("expected overwrite, got %s", envelope.Payload)
	}
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	cache := New(dir, true, nil)
	key := StringKey("broken")

	kindDir := filepath.Join(dir, string(KindSearch))
	if err := os.MkdirAll(kindDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(kindDir, key+".json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, hit, err := cache.Lookup(KindSearch, key); err != nil || hit {
		t.Fatalf("corrupt entry should miss, hit=%v err=%v", hit, err)
	}
}

func TestClearAndCount(t *testing.T) {
	cache := New(t.TempDir(), true, nil)

	if err := cache.Store(KindSearch, StringKey("a"), []byte(`{}`), time.Time{}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := cache.Store(KindDetail, IDKey(1), []byte(`{}`), time.Time{}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	counts, err := cache.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if counts[KindSearch] != 1 || counts[KindDetail] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	counts, err = cache.Count()
	if err != nil {
		t.Fatalf("Count after clear: %v", err)
	}
	if counts[KindSearch] != 0 || counts[KindDetail] != 0 {
		t.Fatalf("cache not cleared: %v", counts)
	}
}
