package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecovarrubiasl/strongpack.2/internal/common"
)

// Handler exposes the read-only catalog endpoints.
type Handler struct {
	catalog *Catalog
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog *Catalog
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog}
}

// Product handles GET /api/v1/product.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, h.catalog.Product())
}

// Affiliate handles GET /api/v1/affiliates/{code}.
func (h *Handler) Affiliate(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	code := NormalizeCode(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "INVALID_REQUEST", "affiliate code is required", nil)
		return
	}
	af, ok := h.catalog.Affiliate(code)
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "affiliate not found", map[string]any{"code": code})
		return
	}
	common.Data(w, http.StatusOK, af)
}
