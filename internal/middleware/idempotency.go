package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyStore keeps captured responses keyed by a request fingerprint
// so that retries of the same mutation replay the original outcome instead
// of executing twice.
type IdempotencyStore struct {
	mu       sync.RWMutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopChan chan struct{}
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	inFlight  bool
	done      chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep cached results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
}

// NewIdempotencyStore creates a store and starts its background sweeper.
// Call Stop to release the sweeper goroutine.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	close(s.stopChan)
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if entry.expiresAt.Before(now) && !entry.inFlight {
			delete(s.entries, key)
		}
	}
}

type claimState int

const (
	claimOwned   claimState = iota // caller must execute and complete the entry
	claimCached                    // a fresh completed response exists
	claimPending                   // another request holds the key; wait on done
)

// claim resolves who handles the request for key. The returned state is a
// snapshot taken under the lock; a claimPending entry is safe to wait on and
// a claimCached entry is immutable until the sweeper removes it.
func (s *IdempotencyStore) claim(key string) (*idempotencyEntry, claimState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		if entry.inFlight {
			return entry, claimPending
		}
		if entry.expiresAt.After(time.Now()) {
			return entry, claimCached
		}
	}

	entry := &idempotencyEntry{
		inFlight: true,
		done:     make(chan struct{}),
	}
	s.entries[key] = entry
	return entry, claimOwned
}

// complete records the captured response on an owned entry and wakes any
// duplicates waiting on it.
func (s *IdempotencyStore) complete(entry *idempotencyEntry, status int, headers http.Header, body []byte) {
	s.mu.Lock()
	entry.status = status
	entry.headers = headers
	entry.body = body
	entry.expiresAt = time.Now().Add(s.ttl)
	entry.inFlight = false
	s.mu.Unlock()

	close(entry.done)
}

// cacheKey fingerprints the caller, the client-chosen key, and the request
// itself, so reusing a key on a different request misses the cache.
func cacheKey(callerID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(callerID))
	h.Write([]byte(idempotencyKey))
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter tees the response so it can be stored for replay.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency returns middleware that replays cached responses for POST and
// PATCH requests carrying an Idempotency-Key header. Concurrent duplicates
// wait for the first request to finish rather than executing twice.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			callerID := GetUserID(r.Context())
			if callerID == "" {
				callerID = ClientIP(r)
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := cacheKey(callerID, idempotencyKey, r.Method, r.URL.Path, body)

			var entry *idempotencyEntry
			for {
				var state claimState
				entry, state = store.claim(key)
				if state == claimOwned {
					break
				}
				if state == claimCached {
					replay(w, entry)
					return
				}
				// Pending: the original request is still executing.
				// Once it completes, re-claim to pick up its result.
				<-entry.done
			}

			cw := &captureWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(cw, r)

			store.complete(entry, cw.status, cw.Header().Clone(), cw.body.Bytes())
		})
	}
}
