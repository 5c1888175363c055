package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/iams-api/internal/application/warranty"
	"github.com/iams-api/internal/domain"
	"github.com/iams-api/internal/transport/http/middleware"
)

// WarrantyAlertHandler handles warranty alert listing, acknowledgement and
// on-demand scans.
type WarrantyAlertHandler struct {
	svc warranty.Service
}

func NewWarrantyAlertHandler(svc warranty.Service) *WarrantyAlertHandler {
	return &WarrantyAlertHandler{svc: svc}
}

func (h *WarrantyAlertHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	all := false
	if v := r.URL.Query().Get("all"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "all must be a boolean")
			return
		}
		all = b
	}
	alerts, err := h.svc.List(r.Context(), claims.TenantID, all)
	if err != nil {
		httpError(w, err)
		return
	}
	if alerts == nil {
		alerts = []domain.WarrantyAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *WarrantyAlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	a, err := h.svc.Acknowledge(r.Context(), chi.URLParam(r, "id"), claims.TenantID, claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Scan runs one scanner cycle synchronously and reports what it wrote.
func (h *WarrantyAlertHandler) Scan(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Scan(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
