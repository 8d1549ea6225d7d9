package ledger

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dukerupert/clubexpense/internal/model"
)

// SortField selects what a sort view orders members by.
type SortField string

const (
	SortNone  SortField = ""
	SortName  SortField = "name"
	SortClass SortField = "class"
	SortTotal SortField = "total"
	SortEvent SortField = "event"
)

// SortKey is a sort field plus, for SortEvent, the event whose attendance
// is compared.
type SortKey struct {
	Field   SortField
	EventID string
}

// String renders the key in the form accepted by ParseSortKey.
func (k SortKey) String() string {
	switch k.Field {
	case SortNone:
		return "none"
	case SortEvent:
		return "event:" + k.EventID
	default:
		return string(k.Field)
	}
}

// ParseSortKey parses "none", "name", "class", "total" or "event:<id>".
func ParseSortKey(s string) (SortKey, error) {
	switch s {
	case "", "none":
		return SortKey{}, nil
	case "name":
		return SortKey{Field: SortName}, nil
	case "class":
		return SortKey{Field: SortClass}, nil
	case "total":
		return SortKey{Field: SortTotal}, nil
	}
	if id, ok := strings.CutPrefix(s, "event:"); ok && id != "" {
		return SortKey{Field: SortEvent, EventID: id}, nil
	}
	return SortKey{}, fmt.Errorf("unknown sort key %q", s)
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc" (or empty) and "desc".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// SortState is the header-click state machine of a sort view. The zero value
// is the unsorted state, in which manual reordering is allowed.
type SortState struct {
	Key       SortKey
	Direction Direction
}

// Select returns the state after choosing key: the same key toggles the
// direction, a different key starts ascending, and the none key clears.
func (s SortState) Select(key SortKey) SortState {
	if key.Field == SortNone {
		return SortState{}
	}
	if s.Key == key {
		if s.Direction == Descending {
			return SortState{Key: key, Direction: Ascending}
		}
		return SortState{Key: key, Direction: Descending}
	}
	return SortState{Key: key, Direction: Ascending}
}

// Active reports whether a sort is applied. Manual reordering is only
// meaningful when it is not.
func (s SortState) Active() bool {
	return s.Key.Field != SortNone
}

// View applies the state to doc.
func (s SortState) View(doc model.Document) []model.Member {
	return SortView(doc, s.Key, s.Direction)
}

// SortView returns the members of doc ordered by key without touching the
// stored member order. Ties keep their position in doc.Members.
func SortView(doc model.Document, key SortKey, dir Direction) []model.Member {
	members := slices.Clone(doc.Members)
	if key.Field == SortNone {
		return members
	}

	var cmp func(a, b model.Member) int
	switch key.Field {
	case SortName, SortClass:
		col := collate.New(language.Japanese)
		field := func(m model.Member) string { return m.Name }
		if key.Field == SortClass {
			field = func(m model.Member) string { return m.ClassName }
		}
		cmp = func(a, b model.Member) int {
			return col.CompareString(field(a), field(b))
		}
	case SortTotal:
		totals := Totals(doc).Members
		cmp = func(a, b model.Member) int {
			return compareInt(totals[a.ID], totals[b.ID])
		}
	case SortEvent:
		cmp = func(a, b model.Member) int {
			return compareInt(cellValue(doc, a.ID, key.EventID), cellValue(doc, b.ID, key.EventID))
		}
	default:
		return members
	}

	if dir == Descending {
		asc := cmp
		cmp = func(a, b model.Member) int { return -asc(a, b) }
	}
	slices.SortStableFunc(members, cmp)
	return members
}

func cellValue(doc model.Document, memberID, eventID string) int64 {
	if doc.Attendance.Get(memberID, eventID) {
		return 1
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
