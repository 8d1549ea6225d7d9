package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu     sync.Mutex
	calls  []time.Time
	err    error
	signal chan struct{}
}

func (f *fakeStore) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, before)
	f.mu.Unlock()
	if f.signal != nil {
		select {
		case f.signal <- struct{}{}:
		default:
		}
	}
	return 1, f.err
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPrunerDisabled(t *testing.T) {
	fs := &fakeStore{}
	p := NewPruner(fs, 0, testLogger())

	if p.Enabled() {
		t.Error("expected zero retention to disable pruning")
	}
	p.Start(context.Background())
	p.Prune(context.Background())
	p.Stop()

	if fs.count() != 0 {
		t.Errorf("calls = %d, want 0", fs.count())
	}
}

func TestPrunerCutoff(t *testing.T) {
	fs := &fakeStore{}
	p := NewPruner(fs, 30, testLogger())

	p.Prune(context.Background())

	if fs.count() != 1 {
		t.Fatalf("calls = %d, want 1", fs.count())
	}
	want := time.Now().UTC().AddDate(0, 0, -30)
	if d := fs.calls[0].Sub(want); d > time.Minute || d < -time.Minute {
		t.Errorf("cutoff = %v, want about %v", fs.calls[0], want)
	}
}

func TestPrunerStoreError(t *testing.T) {
	fs := &fakeStore{err: errors.New("locked")}
	p := NewPruner(fs, 7, testLogger())

	// logged, not returned
	p.Prune(context.Background())
	if fs.count() != 1 {
		t.Errorf("calls = %d, want 1", fs.count())
	}
}

func TestPrunerStartStop(t *testing.T) {
	fs := &fakeStore{signal: make(chan struct{}, 1)}
	p := NewPruner(fs, 30, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	select {
	case <-fs.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an initial prune after Start")
	}

	p.Stop()
	// Double stop should not panic
	p.Stop()
}
