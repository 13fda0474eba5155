package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aecoin-store-api/internal/billplz"
	"aecoin-store-api/internal/metrics"
	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/notify"
	"aecoin-store-api/internal/repository"

	"go.uber.org/zap"
)

// SignatureVerifier checks the authenticity of gateway messages.
type SignatureVerifier interface {
	VerifyCallback(fields map[string]string) (billplz.Outcome, error)
	VerifyRedirect(fields map[string]string) (billplz.Outcome, error)
}

// OrderNotifier announces fulfilled orders. It must not block.
type OrderNotifier interface {
	NotifyOrder(n notify.OrderNotification)
}

// paidAtLayout is the gateway's paid_at format.
const paidAtLayout = "2006-01-02 15:04:05 -0700"

// codeAttempts bounds regeneration after a code collision.
const codeAttempts = 3

// PaymentService confirms payments reported by the gateway and fulfils
// the paid orders.
type PaymentService struct {
	orders   repository.OrderStore
	gateway  Gateway
	verifier SignatureVerifier
	events   repository.PaymentEventLog
	notifier OrderNotifier
	logger   *zap.Logger
	metrics  *metrics.Metrics

	now     func() time.Time
	newCode func() (string, error)
}

// NewPaymentService creates a payment service. events and notifier may be nil.
func NewPaymentService(
	orders repository.OrderStore,
	gateway Gateway,
	verifier SignatureVerifier,
	events repository.PaymentEventLog,
	notifier OrderNotifier,
	logger *zap.Logger,
	m *metrics.Metrics,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		orders:   orders,
		gateway:  gateway,
		verifier: verifier,
		events:   events,
		notifier: notifier,
		logger:   logger.Named("payments"),
		metrics:  m,
		now:      time.Now,
		newCode:  NewRedemptionCode,
	}
}

// HandleCallback processes a server-to-server callback. Repeated callbacks
// for the same bill are acknowledged without side effects.
func (s *PaymentService) HandleCallback(ctx context.Context, fields map[string]string) (order *model.Order, err error) {
	ev := s.newEvent(model.EventSourceCallback, fields)
	defer func() { s.record(ctx, ev, order, err) }()

	if fields["id"] == "" {
		return nil, ErrMissingBillID
	}

	outcome, err := s.verifier.VerifyCallback(fields)
	ev.Outcome = outcome.String()
	s.metrics.RecordSignature(model.EventSourceCallback, outcome.String())
	if err != nil {
		return nil, err
	}

	order, err = s.lookup(ctx, fields["id"])
	if err != nil {
		return nil, err
	}

	switch {
	case ev.Paid:
		return s.confirm(ctx, order, s.paidAt(fields))
	case fields["state"] == billplz.StateDeleted:
		return s.fail(ctx, order)
	default:
		return order, nil
	}
}

// HandleRedirect processes the customer's browser returning from the
// gateway. Because the browser supplies the fields, a paid redirect is
// confirmed with the gateway before the order is fulfilled.
func (s *PaymentService) HandleRedirect(ctx context.Context, fields map[string]string) (order *model.Order, err error) {
	ev := s.newEvent(model.EventSourceRedirect, fields)
	defer func() { s.record(ctx, ev, order, err) }()

	if fields["id"] == "" {
		return nil, ErrMissingBillID
	}

	outcome, err := s.verifier.VerifyRedirect(fields)
	ev.Outcome = outcome.String()
	s.metrics.RecordSignature(model.EventSourceRedirect, outcome.String())
	if err != nil {
		return nil, err
	}

	order, err = s.lookup(ctx, fields["id"])
	if err != nil {
		return nil, err
	}

	if !ev.Paid || order.Status == model.OrderFulfilled {
		return order, nil
	}

	if !s.gateway.VerifyBillPayment(ctx, order.BillID) {
		s.logger.Warn("redirect reported paid but gateway does not confirm",
			zap.String("order_id", order.ID),
			zap.String("bill_id", order.BillID),
		)
		return order, nil
	}

	return s.confirm(ctx, order, s.paidAt(fields))
}

func (s *PaymentService) lookup(ctx context.Context, billID string) (*model.Order, error) {
	order, err := s.orders.GetByBillID(ctx, billID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownBill
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// confirm drives an order through pending -> paid -> fulfilled. Each step
// is conditional, so only one concurrent caller allocates codes.
func (s *PaymentService) confirm(ctx context.Context, order *model.Order, paidAt time.Time) (*model.Order, error) {
	if order.Status == model.OrderPending {
		ok, err := s.orders.Transition(ctx, order.ID, model.OrderPending, model.OrderPaid, &paidAt)
		if err != nil {
			return nil, err
		}
		if ok {
			s.metrics.RecordTransition(string(model.OrderPaid))
			s.logger.Info("order paid", zap.String("order_id", order.ID), zap.String("bill_id", order.BillID))
		}
		if order, err = s.reload(ctx, order.ID); err != nil {
			return nil, err
		}
	}

	switch order.Status {
	case model.OrderPaid:
		return s.fulfil(ctx, order)
	case model.OrderFulfilled:
		s.logger.Debug("order already fulfilled", zap.String("order_id", order.ID))
		return order, nil
	default:
		s.logger.Error("payment received for closed order",
			zap.String("order_id", order.ID),
			zap.String("status", string(order.Status)),
		)
		return order, nil
	}
}

func (s *PaymentService) fulfil(ctx context.Context, order *model.Order) (*model.Order, error) {
	var (
		applied bool
		err     error
	)
	for attempt := 1; attempt <= codeAttempts; attempt++ {
		var codes []model.RedemptionCode
		codes, err = s.allocateCodes(order)
		if err != nil {
			return nil, err
		}

		applied, err = s.orders.Fulfill(ctx, order.ID, codes)
		if err == nil || !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.logger.Warn("redemption code collision, regenerating",
			zap.String("order_id", order.ID),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("fulfil order %s: %w", order.ID, err)
	}

	order, err = s.reload(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return order, nil
	}

	s.metrics.RecordTransition(string(model.OrderFulfilled))
	s.logger.Info("order fulfilled",
		zap.String("order_id", order.ID),
		zap.Int("codes", order.Quantity),
		zap.Int64("aecoin_total", order.AecoinTotal),
	)

	if s.notifier != nil {
		paidAt := s.now()
		if order.PaidAt != nil {
			paidAt = *order.PaidAt
		}
		s.notifier.NotifyOrder(notify.OrderNotification{
			Username:      order.Username,
			Coins:         order.AecoinTotal,
			PaymentMethod: order.PaymentMethod,
			Amount:        order.AmountMYR(),
			OrderID:       order.ID,
			Time:          paidAt,
		})
	}
	return order, nil
}

// allocateCodes issues one code per purchased unit.
func (s *PaymentService) allocateCodes(order *model.Order) ([]model.RedemptionCode, error) {
	if order.Quantity < 1 {
		return nil, fmt.Errorf("order %s has no units", order.ID)
	}
	perUnit := order.AecoinTotal / int64(order.Quantity)

	codes := make([]model.RedemptionCode, 0, order.Quantity)
	for i := 0; i < order.Quantity; i++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		codes = append(codes, model.RedemptionCode{
			Code:         code,
			AecoinAmount: perUnit,
			OrderID:      order.ID,
			UserID:       order.UserID,
		})
	}
	return codes, nil
}

func (s *PaymentService) fail(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order.Status != model.OrderPending {
		return order, nil
	}

	ok, err := s.orders.Transition(ctx, order.ID, model.OrderPending, model.OrderFailed, nil)
	if err != nil {
		return nil, err
	}
	if ok {
		s.metrics.RecordTransition(string(model.OrderFailed))
		s.logger.Info("bill deleted, order failed", zap.String("order_id", order.ID), zap.String("bill_id", order.BillID))
	}
	return s.reload(ctx, order.ID)
}

func (s *PaymentService) reload(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload order %s: %w", id, err)
	}
	return order, nil
}

// paidAt parses the gateway's paid_at field, falling back to now.
func (s *PaymentService) paidAt(fields map[string]string) time.Time {
	if v := fields["paid_at"]; v != "" {
		if t, err := time.Parse(paidAtLayout, v); err == nil {
			return t.UTC()
		}
		s.logger.Debug("unparseable paid_at", zap.String("paid_at", v))
	}
	return s.now().UTC()
}

func (s *PaymentService) newEvent(source string, fields map[string]string) *model.PaymentEvent {
	return &model.PaymentEvent{
		BillID:     fields["id"],
		Source:     source,
		Outcome:    billplz.OutcomeRejected.String(),
		Paid:       fields["paid"] == "true",
		Fields:     fields,
		ReceivedAt: s.now().UTC(),
	}
}

// record writes the audit event. Failures are logged and never change the
// result of the message.
func (s *PaymentService) record(ctx context.Context, ev *model.PaymentEvent, order *model.Order, err error) {
	if s.events == nil {
		return
	}
	if order != nil {
		ev.OrderID = order.ID
	}
	if err != nil {
		ev.Error = err.Error()
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if rerr := s.events.Record(rctx, ev); rerr != nil {
		s.logger.Warn("failed to record payment event",
			zap.String("bill_id", ev.BillID),
			zap.String("source", ev.Source),
			zap.Error(rerr),
		)
	}
}
