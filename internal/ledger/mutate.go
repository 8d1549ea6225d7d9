package ledger

import (
	"slices"
	"strings"

	"github.com/dukerupert/clubexpense/internal/model"
)

// AddMember appends a new member with a false cell for every existing event.
// It returns the new document and the assigned member id.
func AddMember(doc model.Document, name, className string) (model.Document, string) {
	out := doc.Clone()
	id := NewID("member")
	out.Members = append(out.Members, model.Member{ID: id, Name: name, ClassName: className})

	row := make(map[string]bool, len(out.ExpenseDays))
	for _, e := range out.ExpenseDays {
		row[e.ID] = false
	}
	out.Attendance[id] = row
	return out, id
}

// UpdateMember replaces name and className of the member with id.
// Unknown ids leave the document unchanged.
func UpdateMember(doc model.Document, id, name, className string) model.Document {
	out := doc.Clone()
	if i := out.MemberIndex(id); i >= 0 {
		out.Members[i].Name = name
		out.Members[i].ClassName = className
	}
	return out
}

// RemoveMember deletes the member and its attendance row.
func RemoveMember(doc model.Document, id string) model.Document {
	out := doc.Clone()
	out.Members = slices.DeleteFunc(out.Members, func(m model.Member) bool { return m.ID == id })
	delete(out.Attendance, id)
	return out
}

// AddEvent inserts a new expense day, keeps the list in canonical date order
// and adds a false cell for it to every member's row. It returns the new
// document and the assigned event id.
func AddEvent(doc model.Document, date string, amount int64) (model.Document, string) {
	out := doc.Clone()
	id := NewID("date")
	out.ExpenseDays = append(out.ExpenseDays, model.ExpenseDay{ID: id, Date: date, Amount: amount})
	sortDays(out.ExpenseDays)

	for _, m := range out.Members {
		row := out.Attendance[m.ID]
		if row == nil {
			row = make(map[string]bool)
			out.Attendance[m.ID] = row
		}
		row[id] = false
	}
	return out, id
}

// UpdateEvent replaces date and amount of the expense day with id and
// re-sorts by date. Unknown ids leave the document unchanged.
func UpdateEvent(doc model.Document, id, date string, amount int64) model.Document {
	out := doc.Clone()
	i := out.EventIndex(id)
	if i < 0 {
		return out
	}
	out.ExpenseDays[i].Date = date
	out.ExpenseDays[i].Amount = amount
	sortDays(out.ExpenseDays)
	return out
}

// RemoveEvent deletes the expense day and its column from every row.
func RemoveEvent(doc model.Document, id string) model.Document {
	out := doc.Clone()
	out.ExpenseDays = slices.DeleteFunc(out.ExpenseDays, func(e model.ExpenseDay) bool { return e.ID == id })
	for _, row := range out.Attendance {
		delete(row, id)
	}
	return out
}

// ToggleAttendance flips the cell for (memberID, eventID). An absent cell is
// treated as false. Unknown members or events leave the document unchanged.
func ToggleAttendance(doc model.Document, memberID, eventID string) model.Document {
	out := doc.Clone()
	if out.MemberIndex(memberID) < 0 || out.EventIndex(eventID) < 0 {
		return out
	}
	row := out.Attendance[memberID]
	if row == nil {
		row = make(map[string]bool)
		out.Attendance[memberID] = row
	}
	row[eventID] = !row[eventID]
	return out
}

// ReorderMembers moves sourceID so it sits immediately before the member
// currently at targetID, keeping everyone else in relative order. Equal or
// unknown ids leave the order unchanged.
func ReorderMembers(doc model.Document, sourceID, targetID string) model.Document {
	out := doc.Clone()
	src := out.MemberIndex(sourceID)
	dst := out.MemberIndex(targetID)
	if src < 0 || dst < 0 || src == dst {
		return out
	}

	moved := out.Members[src]
	out.Members = slices.Delete(out.Members, src, src+1)
	if src < dst {
		dst--
	}
	out.Members = slices.Insert(out.Members, dst, moved)
	return out
}

// MoveToEnd places the member with id last.
func MoveToEnd(doc model.Document, id string) model.Document {
	out := doc.Clone()
	i := out.MemberIndex(id)
	if i < 0 || i == len(out.Members)-1 {
		return out
	}
	moved := out.Members[i]
	out.Members = append(slices.Delete(out.Members, i, i+1), moved)
	return out
}

// SortedEvents returns the expense days in canonical order: ascending by
// date, ties kept in list order.
func SortedEvents(doc model.Document) []model.ExpenseDay {
	days := slices.Clone(doc.ExpenseDays)
	sortDays(days)
	return days
}

func sortDays(days []model.ExpenseDay) {
	slices.SortStableFunc(days, func(a, b model.ExpenseDay) int {
		return strings.Compare(a.Date, b.Date)
	})
}
