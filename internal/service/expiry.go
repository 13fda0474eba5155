package service

import (
	"context"
	"sync"
	"time"

	"aecoin-store-api/internal/metrics"
	"aecoin-store-api/internal/model"

	"go.uber.org/zap"
)

// OrderExpirer marks stale pending orders as expired.
type OrderExpirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpiryConfig holds configuration for the expiry scheduler.
type ExpiryConfig struct {
	// PendingTTL is how long an order may stay pending. Default: 24 hours
	PendingTTL time.Duration

	// Interval is how often the sweep runs. Default: 10 minutes
	Interval time.Duration

	// InitialDelay postpones the first sweep after Start.
	InitialDelay time.Duration
}

// DefaultExpiryConfig returns default expiry configuration.
func DefaultExpiryConfig() ExpiryConfig {
	return ExpiryConfig{
		PendingTTL:   24 * time.Hour,
		Interval:     10 * time.Minute,
		InitialDelay: time.Minute,
	}
}

// ExpiryScheduler periodically expires pending orders whose bill was never paid.
type ExpiryScheduler struct {
	orders  OrderExpirer
	config  ExpiryConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	ticker    *time.Ticker
	stopCh    chan struct{}
	done      sync.WaitGroup
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewExpiryScheduler creates a new expiry scheduler.
func NewExpiryScheduler(orders OrderExpirer, config ExpiryConfig, logger *zap.Logger, m *metrics.Metrics) *ExpiryScheduler {
	defaults := DefaultExpiryConfig()
	if config.PendingTTL <= 0 {
		config.PendingTTL = defaults.PendingTTL
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.InitialDelay < 0 {
		config.InitialDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ExpiryScheduler{
		orders:  orders,
		config:  config,
		logger:  logger.Named("expiry"),
		metrics: m,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the scheduler. Calling Start twice has no effect.
func (s *ExpiryScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	s.logger.Info("expiry scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("pending_ttl", s.config.PendingTTL),
	)

	s.done.Add(1)
	go s.run()
}

func (s *ExpiryScheduler) run() {
	defer s.done.Done()

	initial := time.NewTimer(s.config.InitialDelay)
	defer initial.Stop()

	for {
		select {
		case <-initial.C:
			s.sweep()
		case <-s.ticker.C:
			s.sweep()
		case <-s.stopCh:
			s.logger.Info("expiry scheduler stopped")
			return
		}
	}
}

func (s *ExpiryScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("order expiry failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("expired pending orders", zap.Int64("count", n))
	} else {
		s.logger.Debug("no pending orders to expire")
	}
}

// RunNow expires stale pending orders immediately and returns how many changed.
func (s *ExpiryScheduler) RunNow(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.config.PendingTTL)
	n, err := s.orders.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordTransitions(string(model.OrderExpired), n)
	return n, nil
}

// Stop stops the scheduler and waits for an in-progress sweep to finish.
func (s *ExpiryScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
		s.mu.Unlock()

		if running {
			s.done.Wait()
		}
	})
}
