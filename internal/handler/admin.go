package handler

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/repository"
	"aecoin-store-api/pkg/apierror"
	"aecoin-store-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderCounter reports order counts per status.
type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	orders       OrderCounter
	events       repository.PaymentEventLog
	collectionID func() string
	storeType    string
	startTime    time.Time
	logger       *zap.Logger
}

// NewAdminHandler creates a new admin handler. collectionID reports the
// gateway collection in use and may be nil.
func NewAdminHandler(
	orders OrderCounter,
	events repository.PaymentEventLog,
	collectionID func() string,
	storeType string,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		orders:       orders,
		events:       events,
		collectionID: collectionID,
		storeType:    storeType,
		startTime:    time.Now(),
		logger:       orNop(logger),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["store_type"] = h.storeType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.orders != nil {
		counts, err := h.orders.CountByStatus(ctx)
		if err == nil {
			stats["orders"] = counts
		} else {
			h.logger.Warn("failed to count orders", zap.Error(err))
			stats["orders"] = map[string]interface{}{"status": "error"}
		}
	}

	collection := "not_created"
	if h.collectionID != nil {
		if id := h.collectionID(); id != "" {
			collection = id
		}
	}
	stats["billplz_collection"] = collection

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetPaymentEvents handles GET /api/v1/admin/payments/{bill_id}/events
func (h *AdminHandler) GetPaymentEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		response.Error(w, apierror.ServiceUnavailable("Payment event log unavailable"))
		return
	}

	billID := chi.URLParam(r, "bill_id")
	if billID == "" {
		response.Error(w, apierror.BadRequest("bill_id is required"))
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	events, err := h.events.ListByBill(r.Context(), billID, limit)
	if err != nil {
		h.logger.Error("failed to list payment events", zap.String("bill_id", billID), zap.Error(err))
		response.Error(w, apierror.InternalError("Failed to fetch payment events"))
		return
	}
	if events == nil {
		events = []model.PaymentEvent{}
	}

	response.OK(w, map[string]interface{}{
		"bill_id": billID,
		"events":  events,
		"count":   len(events),
	})
}
