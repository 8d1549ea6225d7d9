// Package assets reports when the app's companion files were last modified,
// as seen through the HTTP server that serves them.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
)

// TimestampLayout is how a parsed Last-Modified value is displayed.
const TimestampLayout = "2006/01/02 15:04:05"

// Tracked lists the files whose timestamps are shown in the footer.
var Tracked = []string{"index.html", "app.jsx", "service-worker.js", "styles.css"}

// Info is one probe result. Timestamp is empty when nothing could be learned.
type Info struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// Prober fetches Last-Modified headers for Tracked relative to a base URL.
type Prober struct {
	client *http.Client
	base   *url.URL
	names  []string
	loc    *time.Location
	logger *slog.Logger
}

// NewProber returns a Prober resolving asset names against baseURL.
func NewProber(baseURL string, client *http.Client, logger *slog.Logger) (*Prober, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse asset base url: %w", err)
	}
	if base.Path == "" {
		base.Path = "/"
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Prober{
		client: client,
		base:   base,
		names:  Tracked,
		loc:    time.Local,
		logger: logger,
	}, nil
}

// Probe checks every tracked asset concurrently and returns results in
// Tracked order. Individual failures yield an empty timestamp, never an error.
func (p *Prober) Probe(ctx context.Context) []Info {
	out := make([]Info, len(p.names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range p.names {
		g.Go(func() error {
			out[i] = Info{Name: name, Timestamp: p.probe(gctx, name)}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Prober) probe(ctx context.Context, name string) string {
	target := p.base.ResolveReference(&url.URL{Path: name}).String()

	value, headErr := p.lastModified(ctx, http.MethodHead, target)
	if headErr == nil {
		return p.format(value)
	}

	value, getErr := p.lastModified(ctx, http.MethodGet, target)
	if getErr == nil {
		return p.format(value)
	}
	p.logger.Warn("asset metadata probe failed", "asset", name, "head_error", headErr, "get_error", getErr)
	return ""
}

func (p *Prober) lastModified(ctx context.Context, method, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s %s: status %d", method, target, resp.StatusCode)
	}
	return resp.Header.Get("Last-Modified"), nil
}

// format renders an HTTP date in local time. Unparseable values are shown
// as received.
func (p *Prober) format(value string) string {
	if value == "" {
		return ""
	}
	t, err := http.ParseTime(value)
	if err != nil {
		return value
	}
	return t.In(p.loc).Format(TimestampLayout)
}
