package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/clubexpense/internal/metrics"
	"github.com/dukerupert/clubexpense/internal/model"
)

const saveTimeout = 5 * time.Second

// Storage loads and saves the document. Load never fails: implementations
// fall back to a default document and log the cause.
type Storage interface {
	Load(ctx context.Context) model.Document
	Save(ctx context.Context, doc model.Document) error
}

// Change describes one applied mutation.
type Change struct {
	Action   string
	ID       string
	Document model.Document
}

// Book owns the current document. Every mutation goes through Apply or
// Replace, which normalize the result, persist it in the background and
// notify subscribers.
type Book struct {
	mu      sync.Mutex
	doc     model.Document
	storage Storage
	logger  *slog.Logger

	// notifyMu is taken before mu is released so changes reach
	// subscribers in the order they were applied.
	notifyMu sync.Mutex
	subMu    sync.RWMutex
	subs     map[int]func(Change)
	nextSub  int

	saveMu  sync.Mutex
	pending *model.Document
	saving  bool
	saves   sync.WaitGroup
}

// Open loads the document from storage and returns a Book holding it.
func Open(ctx context.Context, storage Storage, logger *slog.Logger) *Book {
	return &Book{
		doc:     Normalize(storage.Load(ctx)),
		storage: storage,
		logger:  logger,
		subs:    make(map[int]func(Change)),
	}
}

// Document returns a copy of the current document.
func (b *Book) Document() model.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.Clone()
}

// Apply runs fn against the current document and installs its normalized
// result. id names the affected entity for subscribers and may be empty.
func (b *Book) Apply(action, id string, fn func(model.Document) model.Document) model.Document {
	b.mu.Lock()
	next := Normalize(fn(b.doc.Clone()))
	b.doc = next
	// queued under mu so the saver never sees an older document last
	b.persist(next)
	b.notifyMu.Lock()
	b.mu.Unlock()

	metrics.Mutations.WithLabelValues(action).Inc()
	b.logger.Debug("document changed", "action", action, "id", id)
	b.notify(Change{Action: action, ID: id, Document: next.Clone()})
	b.notifyMu.Unlock()
	return next.Clone()
}

// Replace swaps in a whole document at once, e.g. after an import.
func (b *Book) Replace(action string, doc model.Document) model.Document {
	return b.Apply(action, "", func(model.Document) model.Document { return doc })
}

// Subscribe registers fn to be called after every change, in apply order.
// fn must not call Apply or Replace. The returned function removes the
// subscription.
func (b *Book) Subscribe(fn func(Change)) (unsubscribe func()) {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()

	return func() {
		b.subMu.Lock()
		delete(b.subs, id)
		b.subMu.Unlock()
	}
}

func (b *Book) notify(c Change) {
	b.subMu.RLock()
	fns := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// persist queues doc for saving without waiting. Saves run one at a time and
// only the latest queued document is written.
func (b *Book) persist(doc model.Document) {
	b.saveMu.Lock()
	b.pending = &doc
	if b.saving {
		b.saveMu.Unlock()
		return
	}
	b.saving = true
	b.saves.Add(1)
	b.saveMu.Unlock()

	go b.saveLoop()
}

func (b *Book) saveLoop() {
	defer b.saves.Done()
	for {
		b.saveMu.Lock()
		doc := b.pending
		b.pending = nil
		if doc == nil {
			b.saving = false
			b.saveMu.Unlock()
			return
		}
		b.saveMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := b.storage.Save(ctx, *doc); err != nil {
			b.logger.Error("save document", "error", err)
		}
		cancel()
	}
}

// Flush blocks until queued saves have been written.
func (b *Book) Flush() {
	b.saves.Wait()
}
