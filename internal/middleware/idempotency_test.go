package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestStore() *IdempotencyStore {
	return NewIdempotencyStore(IdempotencyConfig{TTL: time.Minute, Cleanup: time.Hour})
}

func countingHandler(hits *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"post:1"}`))
	})
}

func TestIdempotency_Replay(t *testing.T) {
	store := newTestStore()
	defer store.Stop()

	var hits int32
	handler := Idempotency(store)(countingHandler(&hits))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(`{"title":"t"}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want 201", first.Code)
	}
	if first.Header().Get("X-Idempotency-Replayed") != "" {
		t.Error("first response marked as replayed")
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("second status = %d, want 201", second.Code)
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("second response not marked as replayed")
	}
	if second.Body.String() != first.Body.String() {
		t.Error("replayed body differs from original")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("handler ran %d times, want 1", hits)
	}
}

func TestIdempotency_DifferentBodiesMiss(t *testing.T) {
	store := newTestStore()
	defer store.Stop()

	var hits int32
	handler := Idempotency(store)(countingHandler(&hits))

	for _, body := range []string{`{"title":"a"}`, `{"title":"b"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("handler ran %d times, want 2 for differing bodies", hits)
	}
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	store := newTestStore()
	defer store.Stop()

	var hits int32
	handler := Idempotency(store)(countingHandler(&hits))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(`{}`))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("handler ran %d times, want 2 without a key", hits)
	}
}

func TestIdempotency_GetIgnored(t *testing.T) {
	store := newTestStore()
	defer store.Stop()

	var hits int32
	handler := Idempotency(store)(countingHandler(&hits))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("handler ran %d times, want 2 for GET", hits)
	}
}

func TestIdempotency_ConcurrentDuplicates(t *testing.T) {
	store := newTestStore()
	defer store.Stop()

	var hits int32
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(30 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"post:1"}`))
	})
	handler := Idempotency(store)(slow)

	var wg sync.WaitGroup
	codes := make([]int, 4)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(`{}`))
			req.Header.Set("Idempotency-Key", "key-1")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("handler ran %d times, want 1 for concurrent duplicates", got)
	}
	for i, code := range codes {
		if code != http.StatusCreated {
			t.Errorf("request %d status = %d, want 201", i, code)
		}
	}
}

func TestIdempotencyStore_Sweep(t *testing.T) {
	store := newTestStore()
	defer store.Stop()

	store.mu.Lock()
	store.entries["expired"] = &idempotencyEntry{expiresAt: time.Now().Add(-time.Minute)}
	store.entries["fresh"] = &idempotencyEntry{expiresAt: time.Now().Add(time.Minute)}
	store.mu.Unlock()

	store.sweep()

	store.mu.RLock()
	defer store.mu.RUnlock()
	if _, ok := store.entries["expired"]; ok {
		t.Error("expired entry survived sweep")
	}
	if _, ok := store.entries["fresh"]; !ok {
		t.Error("fresh entry removed by sweep")
	}
}
