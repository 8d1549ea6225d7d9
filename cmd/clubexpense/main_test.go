package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukerupert/clubexpense/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		DBPath:      filepath.Join(dir, "club.db"),
		StorageKey:  "club-expense-data-v1",
		ImportLimit: 10,
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTotalsSeedsDefault(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	if err := runTotals(cfg, discard(), &out); err != nil {
		t.Fatalf("totals: %v", err)
	}
	if !strings.Contains(out.String(), "華道花子") {
		t.Errorf("output = %q, want default member", out.String())
	}
	if !strings.Contains(out.String(), "total") {
		t.Errorf("output = %q, want grand total line", out.String())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "backup.json.enc")

	var out bytes.Buffer
	if err := runExport(cfg, discard(), []string{"-o", path, "-passphrase", "secret"}, &out); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if bytes.Contains(data, []byte("members")) {
		t.Error("expected encrypted export")
	}

	if err := runImport(cfg, discard(), []string{path}); err == nil {
		t.Error("expected import without passphrase to fail")
	}
	if err := runImport(cfg, discard(), []string{"-passphrase", "secret", path}); err != nil {
		t.Fatalf("import: %v", err)
	}
}

func TestExportToStdout(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	if err := runExport(cfg, discard(), []string{"-o", "-"}, &out); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out.String(), `"expenseDays"`) {
		t.Errorf("output = %q, want document JSON", out.String())
	}
}

func TestImportRejectsInvalidFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"members": []}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := runImport(cfg, discard(), []string{path}); err == nil {
		t.Error("expected invalid backup to be rejected")
	}
	if err := runImport(cfg, discard(), nil); err == nil {
		t.Error("expected missing file argument to fail")
	}
}
