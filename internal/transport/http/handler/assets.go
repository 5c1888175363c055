package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/iams-api/internal/application/asset"
	"github.com/iams-api/internal/domain"
	"github.com/iams-api/internal/pkg/validate"
	"github.com/iams-api/internal/transport/http/middleware"
)

// AssetHandler handles the tenant-scoped asset endpoints.
type AssetHandler struct {
	svc asset.Service
}

func NewAssetHandler(svc asset.Service) *AssetHandler { return &AssetHandler{svc: svc} }

func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	assets, err := h.svc.List(r.Context(), claims.TenantID)
	if err != nil {
		httpError(w, err)
		return
	}
	if assets == nil {
		assets = []domain.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	a, err := h.svc.Get(r.Context(), claims.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	a, err := h.svc.Create(r.Context(), claims.TenantID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// UpdateWarranty sets or clears the warranty end date. The next scan picks it up.
func (h *AssetHandler) UpdateWarranty(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateWarrantyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	end, err := validate.Date(req.WarrantyEndDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	a, err := h.svc.UpdateWarranty(r.Context(), claims.TenantID, chi.URLParam(r, "id"), end)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
