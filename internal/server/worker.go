package server

import (
	"bytes"
	"fmt"
	"net/http"
	"text/template"
	"time"
)

// appShell is precached when the service worker installs.
var appShell = []string{
	"./",
	"./index.html",
	"./styles.css",
	"./app.jsx",
	"./manifest.json",
	"./assets/icon-192.png",
	"./assets/icon-512.png",
}

// remoteAssets are cached on a best-effort basis.
var remoteAssets = []string{
	"https://unpkg.com/react@18/umd/react.production.min.js",
	"https://unpkg.com/react-dom@18/umd/react-dom.production.min.js",
	"https://unpkg.com/@babel/standalone/babel.min.js",
}

var workerTemplate = template.Must(template.New("service-worker.js").Parse(`const CACHE_NAME = '{{js .CacheName}}';
const APP_SHELL = [
{{- range $i, $u := .AppShell}}{{if $i}},{{end}}
  '{{js $u}}'
{{- end}}
];

const REMOTE_ASSETS = [
{{- range $i, $u := .RemoteAssets}}{{if $i}},{{end}}
  '{{js $u}}'
{{- end}}
];

const BYPASS = ['/api/', '/ws', '/metrics', '/health'];

self.addEventListener('install', (event) => {
  event.waitUntil(
    (async () => {
      const cache = await caches.open(CACHE_NAME);
      await cache.addAll(APP_SHELL);
      await Promise.all(
        REMOTE_ASSETS.map(async (url) => {
          try {
            await cache.add(url);
          } catch (error) {
            console.warn('Asset caching skipped', url, error);
          }
        })
      );
      self.skipWaiting();
    })()
  );
});

self.addEventListener('activate', (event) => {
  event.waitUntil(
    (async () => {
      const keys = await caches.keys();
      await Promise.all(
        keys.filter((key) => key !== CACHE_NAME).map((key) => caches.delete(key))
      );
      await self.clients.claim();
    })()
  );
});

self.addEventListener('fetch', (event) => {
  if (event.request.method !== 'GET') {
    return;
  }
  const url = new URL(event.request.url);
  if (url.protocol !== 'http:' && url.protocol !== 'https:') {
    return;
  }
  if (url.origin === self.location.origin && BYPASS.some((p) => url.pathname.startsWith(p))) {
    return;
  }

  event.respondWith(
    (async () => {
      const cache = await caches.open(CACHE_NAME);
      try {
        const cached = await cache.match(event.request);
        if (cached) {
          return cached;
        }
        const response = await fetch(event.request);
        cache.put(event.request, response.clone());
        return response;
      } catch (error) {
        if (event.request.mode === 'navigate') {
          return cache.match('./index.html');
        }
        return (await cache.match(event.request)) || cache.match('./index.html');
      }
    })()
  );
});
`))

type workerData struct {
	CacheName    string
	AppShell     []string
	RemoteAssets []string
}

// serviceWorker is the offline cache script, rendered once at startup.
type serviceWorker struct {
	body    []byte
	modTime time.Time
}

func newServiceWorker(cacheName string) (*serviceWorker, error) {
	var buf bytes.Buffer
	err := workerTemplate.Execute(&buf, workerData{
		CacheName:    cacheName,
		AppShell:     appShell,
		RemoteAssets: remoteAssets,
	})
	if err != nil {
		return nil, fmt.Errorf("render service worker: %w", err)
	}
	return &serviceWorker{body: buf.Bytes(), modTime: time.Now()}, nil
}

func (sw *serviceWorker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "service-worker.js", sw.modTime, bytes.NewReader(sw.body))
}
