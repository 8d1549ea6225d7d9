package ledger

import "github.com/dukerupert/clubexpense/internal/model"

// Summary holds the derived totals of a document.
type Summary struct {
	Members    map[string]int64 `json:"members"`
	GrandTotal int64            `json:"grandTotal"`
}

// MemberTotal sums the amounts of events the member attended, in canonical
// order. A member without a row totals 0.
func MemberTotal(doc model.Document, memberID string) int64 {
	row := doc.Attendance[memberID]
	if row == nil {
		return 0
	}
	var total int64
	for _, e := range SortedEvents(doc) {
		if row[e.ID] {
			total += e.Amount
		}
	}
	return total
}

// GrandTotal sums MemberTotal over all members.
func GrandTotal(doc model.Document) int64 {
	return Totals(doc).GrandTotal
}

// Totals computes every member total and the grand total in one pass.
func Totals(doc model.Document) Summary {
	days := SortedEvents(doc)
	s := Summary{Members: make(map[string]int64, len(doc.Members))}
	for _, m := range doc.Members {
		row := doc.Attendance[m.ID]
		var total int64
		for _, e := range days {
			if row[e.ID] {
				total += e.Amount
			}
		}
		s.Members[m.ID] = total
		s.GrandTotal += total
	}
	return s
}
