package handler

import (
	"net/http"

	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/service"
	"aecoin-store-api/pkg/response"

	"go.uber.org/zap"
)

// PackageHandler handles catalog requests.
type PackageHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

// NewPackageHandler creates a new package handler.
func NewPackageHandler(catalog *service.CatalogService, logger *zap.Logger) *PackageHandler {
	return &PackageHandler{catalog: catalog, logger: orNop(logger)}
}

// PackageRequest is the body for creating a package. Price is in sen.
type PackageRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	AecoinAmount int64  `json:"aecoin_amount" validate:"required,gt=0"`
	Price        int64  `json:"price" validate:"required,gt=0"`
	BonusLabel   string `json:"bonus_label" validate:"max=50"`
	Active       *bool  `json:"active"`
	SortOrder    int    `json:"sort_order" validate:"gte=0"`
}

// PackagePatchRequest is the body for updating a package.
type PackagePatchRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	AecoinAmount *int64  `json:"aecoin_amount" validate:"omitempty,gt=0"`
	Price        *int64  `json:"price" validate:"omitempty,gt=0"`
	BonusLabel   *string `json:"bonus_label" validate:"omitempty,max=50"`
	Active       *bool   `json:"active"`
	SortOrder    *int    `json:"sort_order" validate:"omitempty,gte=0"`
}

// List handles GET /api/v1/packages
func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	packages, err := h.catalog.List(r.Context(), true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, packages)
}

// ListAll handles GET /api/v1/admin/packages
func (h *PackageHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	packages, err := h.catalog.List(r.Context(), false)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, packages)
}

// Create handles POST /api/v1/admin/packages
func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PackageRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	p := &model.Package{
		Name:         req.Name,
		AecoinAmount: req.AecoinAmount,
		Price:        req.Price,
		BonusLabel:   req.BonusLabel,
		Active:       req.Active == nil || *req.Active,
		SortOrder:    req.SortOrder,
	}
	if err := h.catalog.Create(r.Context(), p); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, p)
}

// Update handles PATCH /api/v1/admin/packages/{id}
func (h *PackageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, apiErr := idParam(r, "id")
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	var req PackagePatchRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	p, err := h.catalog.Update(r.Context(), id, service.PackagePatch{
		Name:         req.Name,
		AecoinAmount: req.AecoinAmount,
		Price:        req.Price,
		BonusLabel:   req.BonusLabel,
		Active:       req.Active,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, p)
}

// Delete handles DELETE /api/v1/admin/packages/{id}
func (h *PackageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, apiErr := idParam(r, "id")
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.NoContent(w)
}
