package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dukerupert/clubexpense/internal/config"
	"github.com/dukerupert/clubexpense/internal/database"
	"github.com/dukerupert/clubexpense/internal/ledger"
	"github.com/dukerupert/clubexpense/internal/logging"
	"github.com/dukerupert/clubexpense/internal/persist"
	"github.com/dukerupert/clubexpense/internal/server"
	"github.com/dukerupert/clubexpense/internal/store"
)

const usage = `usage: clubexpense [command] [flags]

commands:
  serve                          run the web app (default)
  export [-o file] [-passphrase p]
                                 write the document as a backup file
  import [-passphrase p] <file>  replace the document with a backup file
  totals                         print member totals and the grand total
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(cfg, logger)
	case "export":
		err = runExport(cfg, logger, args, os.Stdout)
	case "import":
		err = runImport(cfg, logger, args)
	case "totals":
		err = runTotals(cfg, logger, os.Stdout)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

func serve(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv, err := server.New(ctx, db, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	defer cleanupCancel()
	srv.Pruner().Start(cleanupCtx)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("club expense ledger starting", "addr", cfg.Addr(), "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info("shutting down")
	cleanupCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openGateway opens the database and the document gateway the server uses.
func openGateway(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, *persist.Gateway, error) {
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	g := persist.New(store.NewKVStore(db), store.NewBackupStore(db), cfg.StorageKey, logger.With("component", "persist"))
	return db, g, nil
}

func runExport(cfg config.Config, logger *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default: generated name in the current directory, - for stdout)")
	passphrase := fs.String("passphrase", "", "encrypt the backup with this passphrase")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	db, g, err := openGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	file, err := g.Export(ctx, g.Load(ctx), *passphrase)
	if err != nil {
		return err
	}

	if *out == "-" {
		_, err = stdout.Write(file.Data)
		return err
	}
	path := *out
	if path == "" {
		path = file.Filename
	}
	if err := os.WriteFile(path, file.Data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "exported %s (%d bytes)\n", path, len(file.Data))
	return nil
}

func runImport(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	passphrase := fs.String("passphrase", "", "passphrase for an encrypted backup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("import needs exactly one file")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx := context.Background()
	db, g, err := openGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := g.Import(ctx, filepath.Base(path), data, *passphrase)
	if err != nil {
		return err
	}

	book := ledger.Open(ctx, g, logger.With("component", "ledger"))
	doc = book.Replace("import", doc)
	book.Flush()

	logger.Info("imported backup", "file", path, "members", len(doc.Members), "events", len(doc.ExpenseDays))
	return nil
}

func runTotals(cfg config.Config, logger *slog.Logger, stdout io.Writer) error {
	ctx := context.Background()
	db, g, err := openGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	doc := g.Load(ctx)
	totals := ledger.Totals(doc)
	for _, m := range doc.Members {
		fmt.Fprintf(stdout, "%-20s %-8s %12d\n", m.Name, m.ClassName, totals.Members[m.ID])
	}
	fmt.Fprintf(stdout, "%-29s %12d\n", "total", totals.GrandTotal)
	return nil
}
