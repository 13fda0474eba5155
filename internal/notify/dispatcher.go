package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aecoin-store-api/internal/metrics"

	"go.uber.org/zap"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, content string) error
}

// Dispatcher sends order notifications in the background. Send failures and
// panics are logged and never reach the caller.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A nil sender makes every notification
// a no-op.
func NewDispatcher(sender Sender, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
		logger:  logger.Named("notify"),
		metrics: m,
	}
}

// FromConfig builds a dispatcher backed by Discord, or a no-op dispatcher
// when no webhook URL is configured.
func FromConfig(cfg Config, logger *zap.Logger, m *metrics.Metrics) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return NewDispatcher(nil, cfg.Timeout, logger, m), nil
	}
	d, err := NewDiscord(cfg)
	if err != nil {
		return nil, err
	}
	return NewDispatcher(d, cfg.Timeout, logger, m), nil
}

// NotifyOrder schedules a purchase notification and returns immediately.
func (d *Dispatcher) NotifyOrder(n OrderNotification) {
	if d.sender == nil {
		d.logger.Debug("discord webhook not configured, skipping notification", zap.String("order_id", n.OrderID))
		d.metrics.RecordNotification("skipped")
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("dispatcher closed, dropping notification", zap.String("order_id", n.OrderID))
		d.metrics.RecordNotification("skipped")
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.send(n)
}

func (d *Dispatcher) send(n OrderNotification) {
	d.metrics.TrackNotification(1)
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification panic recovered",
				zap.String("order_id", n.OrderID),
				zap.String("panic", fmt.Sprint(r)),
			)
			d.metrics.RecordNotification("failed")
		}
		d.metrics.TrackNotification(-1)
		d.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, FormatOrderMessage(n)); err != nil {
		d.logger.Error("discord notification failed", zap.String("order_id", n.OrderID), zap.Error(err))
		d.metrics.RecordNotification("failed")
		return
	}

	d.logger.Info("discord notification sent", zap.String("order_id", n.OrderID))
	d.metrics.RecordNotification("sent")
}

// Close stops accepting notifications and waits for in-flight sends, or
// until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
