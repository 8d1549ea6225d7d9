package model

// Attendance maps member id -> event id -> present/paid.
type Attendance map[string]map[string]bool

// Get reports the cell for (memberID, eventID). Missing rows and cells read as false.
func (a Attendance) Get(memberID, eventID string) bool {
	return a[memberID][eventID]
}

// Clone returns a deep copy of the matrix.
func (a Attendance) Clone() Attendance {
	if a == nil {
		return Attendance{}
	}
	out := make(Attendance, len(a))
	for memberID, row := range a {
		r := make(map[string]bool, len(row))
		for eventID, v := range row {
			r[eventID] = v
		}
		out[memberID] = r
	}
	return out
}

// Document is the complete persisted state and the unit of import/export.
type Document struct {
	Members     []Member     `json:"members"`
	ExpenseDays []ExpenseDay `json:"expenseDays"`
	Attendance  Attendance   `json:"attendance"`
}

// Clone returns a deep copy so callers never share substructure.
func (d Document) Clone() Document {
	out := Document{
		Members:     make([]Member, len(d.Members)),
		ExpenseDays: make([]ExpenseDay, len(d.ExpenseDays)),
		Attendance:  d.Attendance.Clone(),
	}
	copy(out.Members, d.Members)
	copy(out.ExpenseDays, d.ExpenseDays)
	return out
}

// MemberIndex returns the position of the member with id, or -1.
func (d Document) MemberIndex(id string) int {
	for i, m := range d.Members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// EventIndex returns the position of the expense day with id, or -1.
func (d Document) EventIndex(id string) int {
	for i, e := range d.ExpenseDays {
		if e.ID == id {
			return i
		}
	}
	return -1
}
