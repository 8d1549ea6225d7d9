package backup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store is the part of the backup record store the pruner needs.
type Store interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Pruner periodically deletes export/import records older than the
// retention period.
type Pruner struct {
	mu        sync.Mutex
	store     Store
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPruner returns a pruner keeping records for retentionDays. A value of
// zero or less disables pruning.
func NewPruner(store Store, retentionDays int, logger *slog.Logger) *Pruner {
	return &Pruner{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  time.Hour,
		logger:    logger,
	}
}

// Enabled reports whether the pruner has a positive retention period.
func (p *Pruner) Enabled() bool {
	return p.retention > 0
}

// Start prunes once and then on every interval until ctx is done or Stop
// is called.
func (p *Pruner) Start(ctx context.Context) {
	if !p.Enabled() {
		return
	}
	p.mu.Lock()
	if p.done != nil {
		p.mu.Unlock()
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.Prune(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Prune(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit. It is safe to call more
// than once.
func (p *Pruner) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Prune deletes records older than the retention period.
func (p *Pruner) Prune(ctx context.Context) {
	if !p.Enabled() {
		return
	}
	before := time.Now().UTC().Add(-p.retention)
	n, err := p.store.DeleteOlderThan(ctx, before)
	if err != nil {
		p.logger.Error("prune backup records", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("pruned backup records", "count", n)
	}
}
