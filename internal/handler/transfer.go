package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/clubexpense/internal/backup"
	"github.com/dukerupert/clubexpense/internal/ledger"
	"github.com/dukerupert/clubexpense/internal/model"
	"github.com/dukerupert/clubexpense/internal/persist"
	"github.com/dukerupert/clubexpense/internal/store"
)

const (
	// PassphraseHeader carries the optional export/import passphrase.
	PassphraseHeader = "X-Backup-Passphrase"

	maxImportBytes = 5 << 20
	defaultHistory = 20
	maxHistory     = 100
)

type TransferHandler struct {
	book    *ledger.Book
	gateway *persist.Gateway
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewTransferHandler(book *ledger.Book, gw *persist.Gateway, bs *store.BackupStore, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{book: book, gateway: gw, backups: bs, logger: logger}
}

// Export downloads the current document as a JSON file, encrypted when a
// passphrase header is present.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := h.gateway.Export(r.Context(), h.book.Document(), r.Header.Get(PassphraseHeader))
	if err != nil {
		h.logger.Error("export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(f.Data)
}

type importErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// Import replaces the whole document with the uploaded file. The current
// document is left untouched when the file is rejected.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	filename := r.URL.Query().Get("filename")
	doc, err := h.gateway.Import(r.Context(), filename, data, r.Header.Get(PassphraseHeader))

	var ie *ledger.ImportError
	switch {
	case err == nil:
	case errors.As(err, &ie):
		writeJSON(w, http.StatusUnprocessableEntity, importErrorResponse{Error: ie.Message, Kind: string(ie.Kind), Field: ie.Field})
		return
	case errors.Is(err, persist.ErrPassphraseRequired):
		writeJSON(w, http.StatusUnauthorized, importErrorResponse{Error: err.Error(), Kind: "passphrase_required"})
		return
	case errors.Is(err, backup.ErrDecrypt):
		writeJSON(w, http.StatusUnauthorized, importErrorResponse{Error: backup.ErrDecrypt.Error(), Kind: "decrypt_failed"})
		return
	default:
		h.logger.Error("import", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import")
		return
	}

	next := h.book.Replace("import", doc)
	writeJSON(w, http.StatusOK, newDocumentResponse(next, ""))
}

// History lists recent exports and imports, newest first.
func (h *TransferHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxHistory)
	}

	backups, err := h.backups.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}
