package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/clubexpense/internal/assets"
	"github.com/dukerupert/clubexpense/internal/backup"
	"github.com/dukerupert/clubexpense/internal/config"
	"github.com/dukerupert/clubexpense/internal/handler"
	"github.com/dukerupert/clubexpense/internal/ledger"
	"github.com/dukerupert/clubexpense/internal/middleware"
	"github.com/dukerupert/clubexpense/internal/persist"
	"github.com/dukerupert/clubexpense/internal/store"
	ws "github.com/dukerupert/clubexpense/internal/websocket"
)

type Server struct {
	book        *ledger.Book
	hub         *ws.Hub
	unfollow    func()
	ledgerH     *handler.LedgerHandler
	transferH   *handler.TransferHandler
	assetsH     *handler.AssetsHandler
	static      *staticHandler
	worker      *serviceWorker
	rateLimiter *middleware.RateLimiter
	importLimit int
	pruner      *backup.Pruner
	logger      *slog.Logger
}

// New loads the document from db and wires every HTTP component around it.
func New(ctx context.Context, db *sql.DB, cfg config.Config, logger *slog.Logger) (*Server, error) {
	kvStore := store.NewKVStore(db)
	backupStore := store.NewBackupStore(db)

	gateway := persist.New(kvStore, backupStore, cfg.StorageKey, logger.With("component", "persist"))
	book := ledger.Open(ctx, gateway, logger.With("component", "ledger"))

	hub := ws.NewHub(logger.With("component", "websocket"))
	unfollow := hub.Follow(book)

	baseURL := cfg.AssetBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port + "/"
	}
	prober, err := assets.NewProber(baseURL, nil, logger.With("component", "assets"))
	if err != nil {
		unfollow()
		return nil, err
	}

	static, err := newStaticHandler(cfg.StaticDir, logger.With("component", "static"))
	if err != nil {
		unfollow()
		return nil, fmt.Errorf("static dir: %w", err)
	}
	worker, err := newServiceWorker(cfg.CacheName)
	if err != nil {
		unfollow()
		return nil, err
	}

	return &Server{
		book:        book,
		hub:         hub,
		unfollow:    unfollow,
		ledgerH:     handler.NewLedgerHandler(book, logger.With("component", "ledger_handler")),
		transferH:   handler.NewTransferHandler(book, gateway, backupStore, logger.With("component", "transfer")),
		assetsH:     handler.NewAssetsHandler(prober),
		static:      static,
		worker:      worker,
		rateLimiter: middleware.NewRateLimiter(),
		importLimit: cfg.ImportLimit,
		pruner:      backup.NewPruner(backupStore, cfg.BackupRetentionDays, logger.With("component", "backup")),
		logger:      logger,
	}, nil
}

// Book returns the document owner.
func (s *Server) Book() *ledger.Book {
	return s.book
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Pruner returns the backup history pruner.
func (s *Server) Pruner() *backup.Pruner {
	return s.pruner
}

// Close stops background work and waits for pending saves.
func (s *Server) Close() {
	s.unfollow()
	s.pruner.Stop()
	s.book.Flush()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.book.Document, s.logger.With("component", "websocket")))

	// Document API
	mux.HandleFunc("GET /api/document", s.ledgerH.Document)
	mux.HandleFunc("POST /api/members", s.ledgerH.CreateMember)
	mux.HandleFunc("GET /api/members/sorted", s.ledgerH.SortedMembers)
	mux.HandleFunc("POST /api/members/reorder", s.ledgerH.ReorderMembers)
	mux.HandleFunc("PUT /api/members/{id}", s.ledgerH.UpdateMember)
	mux.HandleFunc("DELETE /api/members/{id}", s.ledgerH.DeleteMember)
	mux.HandleFunc("POST /api/members/{id}/move-to-end", s.ledgerH.MoveMemberToEnd)
	mux.HandleFunc("POST /api/events", s.ledgerH.CreateEvent)
	mux.HandleFunc("PUT /api/events/{id}", s.ledgerH.UpdateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.ledgerH.DeleteEvent)
	mux.HandleFunc("POST /api/attendance/toggle", s.ledgerH.ToggleAttendance)

	// Export / import
	mux.HandleFunc("GET /api/export", s.transferH.Export)
	mux.HandleFunc("POST /api/import", s.rateLimitedHandler(s.transferH.Import))
	mux.HandleFunc("GET /api/backups", s.transferH.History)

	mux.HandleFunc("GET /api/assets", s.assetsH.List)

	// App shell
	mux.Handle("GET /service-worker.js", s.worker)
	mux.Handle("GET /", s.static)

	return middleware.Chain(mux,
		middleware.Recover(s.logger.With("component", "http")),
		middleware.RequestLogger(s.logger.With("component", "http")),
	)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"members": len(s.book.Document().Members),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, s.importLimit, time.Minute)
	return rl(h).ServeHTTP
}
