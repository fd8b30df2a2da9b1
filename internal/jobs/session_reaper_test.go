package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeDeleter struct {
	calls int32
	err   error
}

func (f *fakeDeleter) DeleteExpired(ctx context.Context) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionReaper_SweepsOnStartup(t *testing.T) {
	deleter := &fakeDeleter{}
	reaper := NewSessionReaper(deleter, testLogger(), time.Hour)

	reaper.Start()
	defer reaper.Stop()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&deleter.calls) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no sweep within a second of starting")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionReaper_PeriodicSweeps(t *testing.T) {
	deleter := &fakeDeleter{}
	reaper := NewSessionReaper(deleter, testLogger(), 20*time.Millisecond)

	reaper.Start()
	time.Sleep(90 * time.Millisecond)
	reaper.Stop()

	if calls := atomic.LoadInt32(&deleter.calls); calls < 3 {
		t.Errorf("sweeps = %d, want at least 3", calls)
	}
}

func TestSessionReaper_SurvivesErrors(t *testing.T) {
	deleter := &fakeDeleter{err: errors.New("store down")}
	reaper := NewSessionReaper(deleter, testLogger(), 10*time.Millisecond)

	reaper.Start()
	time.Sleep(50 * time.Millisecond)
	reaper.Stop()

	if calls := atomic.LoadInt32(&deleter.calls); calls < 2 {
		t.Errorf("sweeps = %d, want the loop to keep going after errors", calls)
	}
}

func TestSessionReaper_StartStopIdempotent(t *testing.T) {
	reaper := NewSessionReaper(&fakeDeleter{}, testLogger(), time.Hour)

	reaper.Start()
	reaper.Start() // no-op
	reaper.Stop()
	reaper.Stop() // no-op
}
