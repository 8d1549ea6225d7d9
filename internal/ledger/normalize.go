package ledger

import "github.com/dukerupert/clubexpense/internal/model"

// Normalize returns a copy of doc whose attendance has exactly one entry per
// live (member, event) pair. Missing cells become false, rows for unknown
// members are dropped and columns for unknown events are not carried over.
// Amounts are held to [0, MaxAmount].
func Normalize(doc model.Document) model.Document {
	out := model.Document{
		Members:     make([]model.Member, len(doc.Members)),
		ExpenseDays: make([]model.ExpenseDay, len(doc.ExpenseDays)),
		Attendance:  make(model.Attendance, len(doc.Members)),
	}
	copy(out.Members, doc.Members)
	copy(out.ExpenseDays, doc.ExpenseDays)
	for i := range out.ExpenseDays {
		out.ExpenseDays[i].Amount = min(max(out.ExpenseDays[i].Amount, 0), MaxAmount)
	}

	for _, m := range doc.Members {
		src := doc.Attendance[m.ID]
		row := make(map[string]bool, len(doc.ExpenseDays))
		for _, e := range doc.ExpenseDays {
			row[e.ID] = src[e.ID]
		}
		out.Attendance[m.ID] = row
	}
	return out
}
