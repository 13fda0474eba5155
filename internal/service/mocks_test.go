package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"aecoin-store-api/internal/billplz"
	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/notify"
	"aecoin-store-api/internal/repository"

	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	bills int32

	CreateBillFn        func(ctx context.Context, p billplz.CreateBillParams) (*billplz.Bill, error)
	VerifyBillPaymentFn func(ctx context.Context, id string) bool
}

func (m *mockGateway) CreateBill(ctx context.Context, p billplz.CreateBillParams) (*billplz.Bill, error) {
	if m.CreateBillFn != nil {
		return m.CreateBillFn(ctx, p)
	}
	id := fmt.Sprintf("bill_%d", atomic.AddInt32(&m.bills, 1))
	return &billplz.Bill{ID: id, URL: "https://billplz.test/bills/" + id}, nil
}

func (m *mockGateway) VerifyBillPayment(ctx context.Context, id string) bool {
	if m.VerifyBillPaymentFn != nil {
		return m.VerifyBillPaymentFn(ctx, id)
	}
	return true
}

type mockVerifier struct {
	VerifyCallbackFn func(fields map[string]string) (billplz.Outcome, error)
	VerifyRedirectFn func(fields map[string]string) (billplz.Outcome, error)
}

func (m *mockVerifier) VerifyCallback(fields map[string]string) (billplz.Outcome, error) {
	if m.VerifyCallbackFn != nil {
		return m.VerifyCallbackFn(fields)
	}
	return billplz.OutcomeVerified, nil
}

func (m *mockVerifier) VerifyRedirect(fields map[string]string) (billplz.Outcome, error) {
	if m.VerifyRedirectFn != nil {
		return m.VerifyRedirectFn(fields)
	}
	return billplz.OutcomeVerified, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.OrderNotification
}

func (r *recordingNotifier) NotifyOrder(n notify.OrderNotification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type mockEventLog struct {
	mu       sync.Mutex
	events   []model.PaymentEvent
	RecordFn func(ctx context.Context, e *model.PaymentEvent) error
}

func (m *mockEventLog) Record(ctx context.Context, e *model.PaymentEvent) error {
	m.mu.Lock()
	m.events = append(m.events, *e)
	m.mu.Unlock()
	if m.RecordFn != nil {
		return m.RecordFn(ctx, e)
	}
	return nil
}

func (m *mockEventLog) ListByBill(ctx context.Context, billID string, limit int64) ([]model.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PaymentEvent
	for _, e := range m.events {
		if e.BillID == billID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventLog) Close() error { return nil }

func (m *mockEventLog) all() []model.PaymentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PaymentEvent(nil), m.events...)
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()

	s, err := repository.Open(context.Background(), "sqlite", ":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedPackage(t *testing.T, s *repository.Store, active bool) *model.Package {
	t.Helper()

	p := &model.Package{Name: "AECOIN 5000", AecoinAmount: 5000, Price: 5000, Active: active, SortOrder: 1}
	require.NoError(t, s.Packages().Create(context.Background(), p))
	return p
}
