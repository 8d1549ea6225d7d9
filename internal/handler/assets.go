package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/clubexpense/internal/assets"
)

const probeTimeout = 5 * time.Second

type AssetsHandler struct {
	prober *assets.Prober
}

func NewAssetsHandler(p *assets.Prober) *AssetsHandler {
	return &AssetsHandler{prober: p}
}

// List reports the last-modified time of each tracked companion file.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()
	writeJSON(w, http.StatusOK, map[string]any{"assets": h.prober.Probe(ctx)})
}
