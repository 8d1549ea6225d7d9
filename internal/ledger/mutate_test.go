package ledger

import (
	"reflect"
	"testing"

	"github.com/dukerupert/clubexpense/internal/model"
)

func TestAddMember(t *testing.T) {
	doc := Normalize(fixture())

	got, id := AddMember(doc, "Daichi", "3-1")

	if len(got.Members) != 4 || got.Members[3].ID != id {
		t.Fatalf("members = %v, want new member %s last", memberIDs(got.Members), id)
	}
	row, ok := got.Attendance[id]
	if !ok {
		t.Fatal("expected attendance row for new member")
	}
	for _, e := range got.ExpenseDays {
		if v, ok := row[e.ID]; !ok || v {
			t.Errorf("cell %s = %v (present %v), want false", e.ID, v, ok)
		}
	}
	if len(doc.Members) != 3 {
		t.Error("AddMember modified its input")
	}
}

func TestUpdateMember(t *testing.T) {
	doc := Normalize(fixture())

	got := UpdateMember(doc, "b", "Benjamin", "1-3")
	if m := got.Members[1]; m.ID != "b" || m.Name != "Benjamin" || m.ClassName != "1-3" {
		t.Errorf("member = %+v", m)
	}
	if doc.Members[1].Name != "Ben" {
		t.Error("UpdateMember modified its input")
	}

	same := UpdateMember(doc, "nobody", "x", "y")
	if !reflect.DeepEqual(same, doc) {
		t.Error("expected unknown id to be a no-op")
	}
}

func TestRemoveMemberCascades(t *testing.T) {
	doc := Normalize(fixture())

	got := RemoveMember(doc, "b")

	if want := []string{"a", "c"}; !reflect.DeepEqual(memberIDs(got.Members), want) {
		t.Errorf("members = %v, want %v", memberIDs(got.Members), want)
	}
	if _, ok := got.Attendance["b"]; ok {
		t.Error("expected attendance row for b to be removed")
	}
	if !reflect.DeepEqual(got.Attendance["a"], doc.Attendance["a"]) {
		t.Errorf("row a = %v, want %v", got.Attendance["a"], doc.Attendance["a"])
	}
}

func TestAddEventSortsByDate(t *testing.T) {
	doc := Normalize(fixture())

	got, id := AddEvent(doc, "2024-04-05", 300)

	var dates []string
	for _, e := range got.ExpenseDays {
		dates = append(dates, e.Date)
	}
	if want := []string{"2024-04-01", "2024-04-05", "2024-04-08"}; !reflect.DeepEqual(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}
	if got.ExpenseDays[1].ID != id {
		t.Errorf("inserted id = %s, want %s", got.ExpenseDays[1].ID, id)
	}
	for _, m := range got.Members {
		if v, ok := got.Attendance[m.ID][id]; !ok || v {
			t.Errorf("cell (%s, new) = %v (present %v), want false", m.ID, v, ok)
		}
	}
}

func TestAddEventSameDateKeepsInsertionOrder(t *testing.T) {
	doc := Normalize(fixture())

	got, id := AddEvent(doc, "2024-04-01", 50)
	if got.ExpenseDays[0].ID != "e1" || got.ExpenseDays[1].ID != id {
		t.Errorf("order = %v, want e1 before new event", got.ExpenseDays)
	}
}

func TestUpdateEventResorts(t *testing.T) {
	doc := Normalize(fixture())

	got := UpdateEvent(doc, "e1", "2024-05-01", 150)

	if got.ExpenseDays[0].ID != "e2" || got.ExpenseDays[1].ID != "e1" {
		t.Errorf("order = %v, want e2 then e1", got.ExpenseDays)
	}
	if got.ExpenseDays[1].Amount != 150 {
		t.Errorf("amount = %d, want 150", got.ExpenseDays[1].Amount)
	}
	if !got.Attendance["a"]["e1"] {
		t.Error("expected attendance to survive an event edit")
	}
}

func TestRemoveEventCascades(t *testing.T) {
	doc := Normalize(fixture())

	got := RemoveEvent(doc, "e2")

	if len(got.ExpenseDays) != 1 || got.ExpenseDays[0].ID != "e1" {
		t.Fatalf("days = %v, want only e1", got.ExpenseDays)
	}
	for _, m := range got.Members {
		if _, ok := got.Attendance[m.ID]["e2"]; ok {
			t.Errorf("row %s still has e2", m.ID)
		}
		if got.Attendance[m.ID]["e1"] != doc.Attendance[m.ID]["e1"] {
			t.Errorf("row %s e1 changed", m.ID)
		}
	}
	if _, ok := doc.Attendance["a"]["e2"]; !ok {
		t.Error("RemoveEvent modified its input")
	}
}

func TestToggleAttendance(t *testing.T) {
	doc := Normalize(fixture())

	got := ToggleAttendance(doc, "c", "e1")
	if !got.Attendance["c"]["e1"] {
		t.Error("expected c/e1 to become true")
	}
	got = ToggleAttendance(got, "c", "e1")
	if got.Attendance["c"]["e1"] {
		t.Error("expected c/e1 to toggle back to false")
	}

	sparse := fixture()
	delete(sparse.Attendance, "c")
	got = ToggleAttendance(sparse, "c", "e2")
	if !got.Attendance["c"]["e2"] {
		t.Error("expected absent cell to toggle to true")
	}

	if same := ToggleAttendance(doc, "c", "nope"); !reflect.DeepEqual(same, doc) {
		t.Error("expected unknown event to be a no-op")
	}
}

func TestReorderMembers(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   []string
	}{
		{"move last to front", "c", "a", []string{"c", "a", "b"}},
		{"same id", "a", "a", []string{"a", "b", "c"}},
		{"one slot forward", "a", "b", []string{"a", "b", "c"}},
		{"two slots forward", "a", "c", []string{"b", "a", "c"}},
		{"one slot back", "b", "a", []string{"b", "a", "c"}},
		{"unknown source", "x", "a", []string{"a", "b", "c"}},
		{"unknown target", "a", "x", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReorderMembers(Normalize(fixture()), tt.source, tt.target)
			if ids := memberIDs(got.Members); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("order = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestMoveToEnd(t *testing.T) {
	tests := []struct {
		id   string
		want []string
	}{
		{"a", []string{"b", "c", "a"}},
		{"c", []string{"a", "b", "c"}},
		{"x", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := MoveToEnd(Normalize(fixture()), tt.id)
		if ids := memberIDs(got.Members); !reflect.DeepEqual(ids, tt.want) {
			t.Errorf("MoveToEnd(%s) = %v, want %v", tt.id, ids, tt.want)
		}
	}
}

func TestSortViewByTotalIsStable(t *testing.T) {
	doc := Normalize(fixture())
	doc.Attendance["c"]["e2"] = true // c ties with b at 200

	asc := SortView(doc, SortKey{Field: SortTotal}, Ascending)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(memberIDs(asc), want) {
		t.Errorf("asc = %v, want %v", memberIDs(asc), want)
	}

	desc := SortView(doc, SortKey{Field: SortTotal}, Descending)
	if want := []string{"b", "c", "a"}; !reflect.DeepEqual(memberIDs(desc), want) {
		t.Errorf("desc = %v, want %v", memberIDs(desc), want)
	}

	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(memberIDs(doc.Members), want) {
		t.Errorf("SortView changed stored order to %v", memberIDs(doc.Members))
	}
}

func TestSortViewByNameAndClass(t *testing.T) {
	doc := model.Document{
		Members: []model.Member{
			{ID: "1", Name: "さとう", ClassName: "2-1"},
			{ID: "2", Name: "あべ", ClassName: "1-2"},
			{ID: "3", Name: "かとう", ClassName: "1-1"},
		},
	}

	byName := SortView(doc, SortKey{Field: SortName}, Ascending)
	if want := []string{"2", "3", "1"}; !reflect.DeepEqual(memberIDs(byName), want) {
		t.Errorf("by name = %v, want %v", memberIDs(byName), want)
	}

	byClass := SortView(doc, SortKey{Field: SortClass}, Descending)
	if want := []string{"1", "2", "3"}; !reflect.DeepEqual(memberIDs(byClass), want) {
		t.Errorf("by class desc = %v, want %v", memberIDs(byClass), want)
	}
}

func TestSortViewByEvent(t *testing.T) {
	doc := Normalize(fixture())

	got := SortView(doc, SortKey{Field: SortEvent, EventID: "e1"}, Descending)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(memberIDs(got), want) {
		t.Errorf("by e1 desc = %v, want %v", memberIDs(got), want)
	}

	got = SortView(doc, SortKey{Field: SortEvent, EventID: "e1"}, Ascending)
	if want := []string{"b", "c", "a"}; !reflect.DeepEqual(memberIDs(got), want) {
		t.Errorf("by e1 asc = %v, want %v", memberIDs(got), want)
	}
}

func TestSortStateSelect(t *testing.T) {
	name := SortKey{Field: SortName}
	total := SortKey{Field: SortTotal}

	var s SortState
	if s.Active() {
		t.Error("zero state should not be active")
	}

	s = s.Select(name)
	if s.Key != name || s.Direction != Ascending {
		t.Errorf("first select = %+v, want name asc", s)
	}
	s = s.Select(name)
	if s.Direction != Descending {
		t.Errorf("second select = %+v, want desc", s)
	}
	s = s.Select(name)
	if s.Direction != Ascending {
		t.Errorf("third select = %+v, want asc", s)
	}
	s = s.Select(name).Select(total)
	if s.Key != total || s.Direction != Ascending {
		t.Errorf("new key = %+v, want total asc", s)
	}
	s = s.Select(SortKey{})
	if s.Active() {
		t.Errorf("none key = %+v, want inactive", s)
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SortKey
		wantErr bool
	}{
		{"", SortKey{}, false},
		{"none", SortKey{}, false},
		{"name", SortKey{Field: SortName}, false},
		{"class", SortKey{Field: SortClass}, false},
		{"total", SortKey{Field: SortTotal}, false},
		{"event:date-1", SortKey{Field: SortEvent, EventID: "date-1"}, false},
		{"event:", SortKey{}, true},
		{"age", SortKey{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortKey(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if !tt.wantErr && tt.in != "" {
			if s := got.String(); s != tt.in {
				t.Errorf("String() = %q, want %q", s, tt.in)
			}
		}
	}
}
