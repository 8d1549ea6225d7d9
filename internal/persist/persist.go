// Package persist moves the ledger document between memory, the local
// key/value store and export files.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/clubexpense/internal/backup"
	"github.com/dukerupert/clubexpense/internal/ledger"
	"github.com/dukerupert/clubexpense/internal/metrics"
	"github.com/dukerupert/clubexpense/internal/model"
)

const (
	ContentTypeJSON      = "application/json"
	ContentTypeEncrypted = "application/octet-stream"
)

// ErrPassphraseRequired is returned by Import for an encrypted file when no
// passphrase was supplied.
var ErrPassphraseRequired = errors.New("the file is encrypted; a passphrase is required")

// KV is the durable slot the document lives in.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Recorder keeps a history of exports and imports.
type Recorder interface {
	Create(ctx context.Context, kind model.BackupKind, filename string, sizeBytes int64, encrypted bool, errorMsg string) (*model.Backup, error)
}

// Gateway implements ledger.Storage on top of a KV and adds file export and
// import.
type Gateway struct {
	kv      KV
	history Recorder
	key     string
	logger  *slog.Logger
}

// New returns a Gateway storing the document under key. history may be nil.
func New(kv KV, history Recorder, key string, logger *slog.Logger) *Gateway {
	return &Gateway{kv: kv, history: history, key: key, logger: logger}
}

var _ ledger.Storage = (*Gateway)(nil)

// Load returns the stored document. A missing value is seeded with the
// default document; an unreadable one is replaced by it; anything else is
// sanitized and written back in repaired form. Read failures fall back to the
// default without touching storage.
func (g *Gateway) Load(ctx context.Context) model.Document {
	raw, ok, err := g.kv.Get(ctx, g.key)
	if err != nil {
		g.logger.Error("load document", "key", g.key, "error", err)
		return ledger.NewDefault()
	}

	var doc model.Document
	switch {
	case !ok:
		g.logger.Info("no stored document, seeding default", "key", g.key)
		doc = ledger.NewDefault()
	default:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			g.logger.Warn("stored document is not valid JSON, resetting", "key", g.key, "error", err)
			doc = ledger.NewDefault()
		} else {
			doc = ledger.Sanitize(v)
		}
	}

	if err := g.Save(ctx, doc); err != nil {
		g.logger.Error("write back loaded document", "error", err)
	}
	return ledger.Normalize(doc)
}

// Save stores the normalized document as compact JSON.
func (g *Gateway) Save(ctx context.Context, doc model.Document) error {
	data, err := json.Marshal(ledger.Normalize(doc))
	if err != nil {
		metrics.Saves.WithLabelValues("error").Inc()
		return fmt.Errorf("encode document: %w", err)
	}
	if err := g.kv.Set(ctx, g.key, string(data)); err != nil {
		metrics.Saves.WithLabelValues("error").Inc()
		return fmt.Errorf("save document: %w", err)
	}
	metrics.Saves.WithLabelValues("ok").Inc()
	return nil
}

// File is an export ready to hand to a user.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportFilename returns the download name for an export made on today
// (YYYY-MM-DD).
func ExportFilename(today string) string {
	return "club-expense-" + today + ".json"
}

// Export renders doc as indented JSON. A non-empty passphrase encrypts the
// result and adds ".enc" to the filename.
func (g *Gateway) Export(ctx context.Context, doc model.Document, passphrase string) (File, error) {
	f, err := encode(doc, passphrase)
	g.record(ctx, model.BackupKindExport, f.Filename, len(f.Data), passphrase != "", err)
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func encode(doc model.Document, passphrase string) (File, error) {
	f := File{Filename: ExportFilename(ledger.Today()), ContentType: ContentTypeJSON}

	data, err := json.MarshalIndent(ledger.Normalize(doc), "", "  ")
	if err != nil {
		return f, fmt.Errorf("encode export: %w", err)
	}
	if passphrase == "" {
		f.Data = data
		return f, nil
	}

	sealed, err := backup.Encrypt(data, passphrase)
	if err != nil {
		return f, fmt.Errorf("encrypt export: %w", err)
	}
	f.Filename += ".enc"
	f.ContentType = ContentTypeEncrypted
	f.Data = sealed
	return f, nil
}

// Import parses and validates a file produced by Export (or edited by hand).
// Encrypted files need the passphrase they were exported with. On error the
// returned document is empty and the caller's state must be left alone.
func (g *Gateway) Import(ctx context.Context, filename string, data []byte, passphrase string) (model.Document, error) {
	doc, err := decode(data, passphrase)
	g.record(ctx, model.BackupKindImport, filename, len(data), backup.IsEncrypted(data), err)
	if err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

func decode(data []byte, passphrase string) (model.Document, error) {
	if backup.IsEncrypted(data) {
		if passphrase == "" {
			return model.Document{}, ErrPassphraseRequired
		}
		plain, err := backup.Decrypt(data, passphrase)
		if err != nil {
			return model.Document{}, fmt.Errorf("decrypt import: %w", err)
		}
		data = plain
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Document{}, &ledger.ImportError{
			Kind:    ledger.KindWrongType,
			Message: "the file is not valid JSON",
		}
	}
	return ledger.ValidateImport(raw)
}

func (g *Gateway) record(ctx context.Context, kind model.BackupKind, filename string, size int, encrypted bool, opErr error) {
	result := "ok"
	var msg string
	if opErr != nil {
		result = "error"
		msg = opErr.Error()
	}
	metrics.Transfers.WithLabelValues(string(kind), result).Inc()

	if opErr != nil {
		g.logger.Warn("transfer failed", "kind", kind, "filename", filename, "error", opErr)
	} else {
		g.logger.Info("transfer completed", "kind", kind, "filename", filename, "bytes", size, "encrypted", encrypted)
	}

	if g.history == nil {
		return
	}
	if _, err := g.history.Create(ctx, kind, filename, int64(size), encrypted, msg); err != nil {
		g.logger.Error("record transfer", "kind", kind, "error", err)
	}
}
