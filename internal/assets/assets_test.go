package assets

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProber(t *testing.T, srv *httptest.Server) *Prober {
	t.Helper()
	p, err := NewProber(srv.URL, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new prober: %v", err)
	}
	p.loc = time.UTC
	return p
}

func TestProbeHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.Header().Set("Last-Modified", "Mon, 01 Apr 2024 09:30:15 GMT")
	}))
	t.Cleanup(srv.Close)

	got := newTestProber(t, srv).Probe(context.Background())

	if len(got) != len(Tracked) {
		t.Fatalf("got %d results, want %d", len(got), len(Tracked))
	}
	for i, info := range got {
		if info.Name != Tracked[i] {
			t.Errorf("result[%d].Name = %q, want %q", i, info.Name, Tracked[i])
		}
		if info.Timestamp != "2024/04/01 09:30:15" {
			t.Errorf("result[%d].Timestamp = %q", i, info.Timestamp)
		}
	}
}

func TestProbeFallsBackToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Last-Modified", "Tue, 02 Apr 2024 00:00:00 GMT")
		w.Write([]byte("body"))
	}))
	t.Cleanup(srv.Close)

	got := newTestProber(t, srv).Probe(context.Background())
	if got[0].Timestamp != "2024/04/02 00:00:00" {
		t.Errorf("timestamp = %q, want GET fallback value", got[0].Timestamp)
	}
}

func TestProbeFailuresAreEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	for _, info := range newTestProber(t, srv).Probe(context.Background()) {
		if info.Timestamp != "" {
			t.Errorf("%s timestamp = %q, want empty", info.Name, info.Timestamp)
		}
	}
}

func TestProbeUnparseableHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "yesterday")
	}))
	t.Cleanup(srv.Close)

	got := newTestProber(t, srv).Probe(context.Background())
	if got[0].Timestamp != "yesterday" {
		t.Errorf("timestamp = %q, want raw header", got[0].Timestamp)
	}
}

func TestProbeMissingHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	got := newTestProber(t, srv).Probe(context.Background())
	if got[0].Timestamp != "" {
		t.Errorf("timestamp = %q, want empty", got[0].Timestamp)
	}
}
