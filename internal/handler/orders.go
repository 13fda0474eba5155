package handler

import (
	"net/http"

	"aecoin-store-api/internal/middleware"
	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/repository"
	"aecoin-store-api/internal/service"
	"aecoin-store-api/pkg/apierror"
	"aecoin-store-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderHandler handles checkout and order requests.
type OrderHandler struct {
	orders *service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: orNop(logger)}
}

// CheckoutRequest is the body for starting a purchase.
type CheckoutRequest struct {
	PackageID int64  `json:"package_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Mobile    string `json:"mobile" validate:"omitempty,max=20"`
}

// Checkout handles POST /api/v1/orders
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req CheckoutRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	res, err := h.orders.Checkout(r.Context(), service.Customer{
		UserID:   sess.UserID,
		Username: sess.Username,
		Email:    sess.Email,
		Mobile:   req.Mobile,
	}, req.PackageID, req.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, res)
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	page, limit := pagination(r)
	orders, err := h.orders.List(r.Context(), sess.UserID, uint64(limit), uint64((page-1)*limit))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, orders)
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	order, err := h.orders.Get(r.Context(), sess.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, order)
}

// Codes handles GET /api/v1/orders/{id}/codes
func (h *OrderHandler) Codes(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	codes, err := h.orders.Codes(r.Context(), sess.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, codes)
}

// Search handles GET /api/v1/admin/orders
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	q := r.URL.Query()

	orders, err := h.orders.Search(r.Context(), repository.OrderFilter{
		UserID: q.Get("user_id"),
		Status: model.OrderStatus(q.Get("status")),
		Limit:  uint64(limit),
		Offset: uint64((page - 1) * limit),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, orders)
}
