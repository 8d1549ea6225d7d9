package handler

import (
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/clubexpense/internal/ledger"
	"github.com/dukerupert/clubexpense/internal/model"
)

type LedgerHandler struct {
	book   *ledger.Book
	logger *slog.Logger
}

func NewLedgerHandler(book *ledger.Book, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{book: book, logger: logger}
}

type memberRequest struct {
	Name      string `json:"name"`
	ClassName string `json:"className"`
}

func (req *memberRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.ClassName = strings.TrimSpace(req.ClassName)
	switch {
	case req.Name == "":
		return "name is required"
	case req.ClassName == "":
		return "className is required"
	}
	return ""
}

type eventRequest struct {
	Date   string   `json:"date"`
	Amount *float64 `json:"amount"`
}

// validate checks the date and returns the amount rounded to a whole number.
func (req *eventRequest) validate() (int64, string) {
	req.Date = strings.TrimSpace(req.Date)
	if _, err := time.Parse(ledger.DateLayout, req.Date); err != nil {
		return 0, "date must be YYYY-MM-DD"
	}
	if req.Amount == nil {
		return 0, "amount is required"
	}
	a := *req.Amount
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return 0, "amount must be a non-negative number"
	}
	if math.Round(a) > float64(ledger.MaxAmount) {
		return 0, "amount is too large"
	}
	return int64(math.Round(a)), ""
}

func (h *LedgerHandler) Document(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newDocumentResponse(h.book.Document(), ""))
}

func (h *LedgerHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var id string
	doc := h.book.Apply("member.add", "", func(d model.Document) model.Document {
		var out model.Document
		out, id = ledger.AddMember(d, req.Name, req.ClassName)
		return out
	})
	writeJSON(w, http.StatusCreated, newDocumentResponse(doc, id))
}

func (h *LedgerHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.memberExists(id) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	doc := h.book.Apply("member.update", id, func(d model.Document) model.Document {
		return ledger.UpdateMember(d, id, req.Name, req.ClassName)
	})
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, id))
}

func (h *LedgerHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.memberExists(id) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	doc := h.book.Apply("member.remove", id, func(d model.Document) model.Document {
		return ledger.RemoveMember(d, id)
	})
	h.logger.Info("member removed", "id", id)
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, id))
}

type reorderRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

func (h *LedgerHandler) ReorderMembers(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.memberExists(req.SourceID) || !h.memberExists(req.TargetID) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	doc := h.book.Apply("member.reorder", req.SourceID, func(d model.Document) model.Document {
		return ledger.ReorderMembers(d, req.SourceID, req.TargetID)
	})
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, req.SourceID))
}

func (h *LedgerHandler) MoveMemberToEnd(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.memberExists(id) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	doc := h.book.Apply("member.move_to_end", id, func(d model.Document) model.Document {
		return ledger.MoveToEnd(d, id)
	})
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, id))
}

type sortedResponse struct {
	Key       string           `json:"key"`
	Direction string           `json:"dir"`
	Members   []model.Member   `json:"members"`
	Totals    map[string]int64 `json:"totals"`
}

// SortedMembers returns a sorted view of the members. The stored order is
// left alone.
func (h *LedgerHandler) SortedMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, err := ledger.ParseSortKey(q.Get("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := ledger.ParseDirection(q.Get("dir"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc := h.book.Document()
	if key.Field == ledger.SortEvent && doc.EventIndex(key.EventID) < 0 {
		writeError(w, http.StatusBadRequest, "unknown event")
		return
	}

	writeJSON(w, http.StatusOK, sortedResponse{
		Key:       key.String(),
		Direction: string(dir),
		Members:   ledger.SortView(doc, key, dir),
		Totals:    ledger.Totals(doc).Members,
	})
}

func (h *LedgerHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	amount, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var id string
	doc := h.book.Apply("event.add", "", func(d model.Document) model.Document {
		var out model.Document
		out, id = ledger.AddEvent(d, req.Date, amount)
		return out
	})
	writeJSON(w, http.StatusCreated, newDocumentResponse(doc, id))
}

func (h *LedgerHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.eventExists(id) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	amount, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	doc := h.book.Apply("event.update", id, func(d model.Document) model.Document {
		return ledger.UpdateEvent(d, id, req.Date, amount)
	})
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, id))
}

func (h *LedgerHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.eventExists(id) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	doc := h.book.Apply("event.remove", id, func(d model.Document) model.Document {
		return ledger.RemoveEvent(d, id)
	})
	h.logger.Info("event removed", "id", id)
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, id))
}

type toggleRequest struct {
	MemberID string `json:"memberId"`
	EventID  string `json:"eventId"`
}

func (h *LedgerHandler) ToggleAttendance(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.memberExists(req.MemberID) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if !h.eventExists(req.EventID) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	doc := h.book.Apply("attendance.toggle", req.MemberID, func(d model.Document) model.Document {
		return ledger.ToggleAttendance(d, req.MemberID, req.EventID)
	})
	writeJSON(w, http.StatusOK, newDocumentResponse(doc, req.MemberID))
}

func (h *LedgerHandler) memberExists(id string) bool {
	return id != "" && h.book.Document().MemberIndex(id) >= 0
}

func (h *LedgerHandler) eventExists(id string) bool {
	return id != "" && h.book.Document().EventIndex(id) >= 0
}
