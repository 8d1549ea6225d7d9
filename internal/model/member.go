package model

// Member is one club member. ID is immutable once assigned.
type Member struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ClassName string `json:"className"`
}

// ExpenseDay is a dated fee event. Date is an ISO-8601 calendar date
// (YYYY-MM-DD) and Amount is a non-negative whole number of yen.
type ExpenseDay struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}
