package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiredSessionDeleter removes refresh sessions past their expiry
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// SessionReaper periodically purges expired refresh sessions so the session
// table does not grow without bound.
type SessionReaper struct {
	sessions ExpiredSessionDeleter
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewSessionReaper creates a session reaper. A zero interval defaults to
// one hour.
func NewSessionReaper(sessions ExpiredSessionDeleter, logger *slog.Logger, interval time.Duration) *SessionReaper {
	if interval == 0 {
		interval = time.Hour
	}
	return &SessionReaper{
		sessions: sessions,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the reaper loop
func (j *SessionReaper) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	j.logger.Info("session reaper started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the reaper and waits for an in-progress sweep
func (j *SessionReaper) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	j.logger.Info("session reaper stopped")
}

func (j *SessionReaper) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Sweep once on startup so a restart loop cannot defer cleanup forever
	j.sweep()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopCh:
			return
		}
	}
}

func (j *SessionReaper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("session sweep failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		j.logger.Info("expired sessions removed", slog.Int("count", removed))
	}
}
