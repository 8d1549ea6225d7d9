package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/clubexpense/internal/ledger"
	"github.com/dukerupert/clubexpense/internal/model"
)

// documentResponse is what every read and mutation endpoint returns.
type documentResponse struct {
	ID         string             `json:"id,omitempty"`
	Document   model.Document     `json:"document"`
	Events     []model.ExpenseDay `json:"events"`
	Totals     map[string]int64   `json:"totals"`
	GrandTotal int64              `json:"grandTotal"`
}

func newDocumentResponse(doc model.Document, id string) documentResponse {
	s := ledger.Totals(doc)
	return documentResponse{
		ID:         id,
		Document:   doc,
		Events:     ledger.SortedEvents(doc),
		Totals:     s.Members,
		GrandTotal: s.GrandTotal,
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
