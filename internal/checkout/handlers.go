package checkout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ecovarrubiasl/strongpack.2/internal/common"
	"github.com/ecovarrubiasl/strongpack.2/internal/pricing"
)

// Handler exposes the checkout endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var req pricing.SelectionRequest
	if appErr := common.DecodeJSON(r, &req, h.Validate); appErr != nil {
		common.WriteError(w, appErr)
		return
	}
	out, err := h.Svc.Submit(r.Context(), req.Selection())
	if errors.Is(err, ErrGatewayUnavailable) {
		common.JSONError(w, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE", "checkout temporarily unavailable", nil)
		return
	}
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "CHECKOUT_FAILED", "checkout could not be submitted", map[string]any{"error": err.Error()})
		return
	}
	common.Data(w, http.StatusCreated, out)
}

// Receipt handles GET /api/v1/checkout/{reference}.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "reference"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid receipt reference", nil)
		return
	}
	// receipts are stored under the canonical lowercase form
	receipt, err := h.Svc.Receipt(r.Context(), id.String())
	if err != nil {
		if errors.Is(err, ErrReceiptNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "receipt not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "receipt lookup failed", nil)
		return
	}
	common.Data(w, http.StatusOK, receipt)
}
