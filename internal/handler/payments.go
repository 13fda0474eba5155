package handler

import (
	"net/http"
	"net/url"
	"strings"

	"aecoin-store-api/internal/billplz"
	"aecoin-store-api/internal/service"
	"aecoin-store-api/pkg/apierror"
	"aecoin-store-api/pkg/response"

	"go.uber.org/zap"
)

// PaymentHandler receives Billplz callbacks and redirects.
type PaymentHandler struct {
	payments    *service.PaymentService
	frontendURL string
	logger      *zap.Logger
}

// NewPaymentHandler creates a new payment handler. Browsers returning from
// the gateway are sent on to frontendURL.
func NewPaymentHandler(payments *service.PaymentService, frontendURL string, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments:    payments,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      orNop(logger).Named("payments"),
	}
}

// CallbackResponse acknowledges a callback.
type CallbackResponse struct {
	Received bool   `json:"received"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
}

// Callback handles POST /api/v1/payments/billplz/callback
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		response.Error(w, apierror.BadRequest("malformed callback payload"))
		return
	}

	fields := billplz.CallbackFields(r.PostForm)
	if fields["id"] == "" {
		response.Error(w, apierror.BadRequest("missing bill id"))
		return
	}

	order, err := h.payments.HandleCallback(r.Context(), fields)
	if err != nil {
		h.logger.Warn("callback rejected", zap.String("bill_id", fields["id"]), zap.Error(err))
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, CallbackResponse{Received: true, OrderID: order.ID, Status: string(order.Status)})
}

// Redirect handles GET /api/v1/payments/billplz/redirect
func (h *PaymentHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	fields := billplz.RedirectFields(r.URL.Query())
	if fields["id"] == "" {
		response.Error(w, apierror.BadRequest("missing bill id"))
		return
	}

	order, err := h.payments.HandleRedirect(r.Context(), fields)
	if err != nil {
		h.logger.Warn("redirect rejected", zap.String("bill_id", fields["id"]), zap.Error(err))
		writeError(w, h.logger, err)
		return
	}

	q := url.Values{}
	q.Set("order", order.ID)
	q.Set("status", string(order.Status))
	http.Redirect(w, r, h.frontendURL+"/orders?"+q.Encode(), http.StatusFound)
}
