package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dukerupert/clubexpense/internal/model"
)

type memStorage struct {
	mu    sync.Mutex
	doc   model.Document
	saves int
	err   error
}

func (s *memStorage) Load(context.Context) model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *memStorage) Save(_ context.Context, doc model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.err != nil {
		return s.err
	}
	s.doc = doc.Clone()
	return nil
}

func (s *memStorage) saved() (model.Document, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), s.saves
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBookOpenNormalizes(t *testing.T) {
	doc := fixture()
	doc.Attendance = model.Attendance{"a": {"e1": true}}

	b := Open(context.Background(), &memStorage{doc: doc}, discardLogger())

	got := b.Document()
	if v, ok := got.Attendance["c"]["e2"]; !ok || v {
		t.Errorf("cell (c, e2) = %v (present %v), want false", v, ok)
	}
}

func TestBookApplyPersistsAndNotifies(t *testing.T) {
	st := &memStorage{doc: fixture()}
	b := Open(context.Background(), st, discardLogger())

	var changes []Change
	unsubscribe := b.Subscribe(func(c Change) { changes = append(changes, c) })

	b.Apply("attendance.toggle", "c", func(d model.Document) model.Document {
		return ToggleAttendance(d, "c", "e1")
	})
	b.Flush()

	saved, n := st.saved()
	if n == 0 {
		t.Fatal("expected at least one save")
	}
	if !saved.Attendance["c"]["e1"] {
		t.Error("expected saved document to contain toggled cell")
	}
	if len(changes) != 1 || changes[0].Action != "attendance.toggle" || changes[0].ID != "c" {
		t.Fatalf("changes = %+v", changes)
	}
	if !changes[0].Document.Attendance["c"]["e1"] {
		t.Error("expected change to carry the new document")
	}

	unsubscribe()
	b.Apply("member.move_to_end", "a", func(d model.Document) model.Document {
		return MoveToEnd(d, "a")
	})
	b.Flush()
	if len(changes) != 1 {
		t.Errorf("got %d changes after unsubscribe, want 1", len(changes))
	}
}

func TestBookSaveFailureKeepsMemoryState(t *testing.T) {
	st := &memStorage{doc: fixture(), err: errors.New("disk full")}
	b := Open(context.Background(), st, discardLogger())

	b.Apply("member.remove", "b", func(d model.Document) model.Document {
		return RemoveMember(d, "b")
	})
	b.Flush()

	if got := b.Document(); got.MemberIndex("b") >= 0 {
		t.Error("expected in-memory document to keep the change after a failed save")
	}
}

func TestBookReplace(t *testing.T) {
	st := &memStorage{doc: fixture()}
	b := Open(context.Background(), st, discardLogger())

	next := NewDefault()
	b.Replace("import", next)
	b.Flush()

	got := b.Document()
	if len(got.Members) != 1 || got.Members[0].ID != next.Members[0].ID {
		t.Errorf("members = %+v, want replaced document", got.Members)
	}
	saved, _ := st.saved()
	if saved.Members[0].ID != next.Members[0].ID {
		t.Error("expected replaced document to be saved")
	}
}

func TestBookDocumentIsACopy(t *testing.T) {
	b := Open(context.Background(), &memStorage{doc: fixture()}, discardLogger())

	d := b.Document()
	d.Members[0].Name = "mutated"
	d.Attendance["a"]["e1"] = false

	again := b.Document()
	if again.Members[0].Name != "Aoi" || !again.Attendance["a"]["e1"] {
		t.Error("Document returned shared state")
	}
}

func TestBookConcurrentApply(t *testing.T) {
	st := &memStorage{doc: fixture()}
	b := Open(context.Background(), st, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Apply("member.add", "", func(d model.Document) model.Document {
				out, _ := AddMember(d, "x", "1-1")
				return out
			})
		}()
	}
	wg.Wait()
	b.Flush()

	if got := len(b.Document().Members); got != 23 {
		t.Errorf("members = %d, want 23", got)
	}
	saved, _ := st.saved()
	if len(saved.Members) != 23 {
		t.Errorf("saved members = %d, want 23", len(saved.Members))
	}
}

func TestBookNotifiesInApplyOrder(t *testing.T) {
	for round := 0; round < 20; round++ {
		b := Open(context.Background(), &memStorage{doc: fixture()}, discardLogger())

		var mu sync.Mutex
		var seen []int
		b.Subscribe(func(c Change) {
			mu.Lock()
			seen = append(seen, len(c.Document.Members))
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.Apply("member.add", "", func(d model.Document) model.Document {
					out, _ := AddMember(d, "x", "1-1")
					return out
				})
			}()
		}
		wg.Wait()
		b.Flush()

		mu.Lock()
		for i, n := range seen {
			if want := 4 + i; n != want {
				t.Fatalf("round %d: notification %d carried %d members, want %d", round, i, n, want)
			}
		}
		last := seen[len(seen)-1]
		mu.Unlock()
		if want := len(b.Document().Members); last != want {
			t.Fatalf("round %d: last notification carried %d members, book has %d", round, last, want)
		}
	}
}
