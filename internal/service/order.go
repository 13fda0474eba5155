package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aecoin-store-api/internal/billplz"
	"aecoin-store-api/internal/metrics"
	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/repository"
	"aecoin-store-api/pkg/uid"

	"go.uber.org/zap"
)

// Gateway is the subset of the Billplz client the services use.
type Gateway interface {
	CreateBill(ctx context.Context, p billplz.CreateBillParams) (*billplz.Bill, error)
	VerifyBillPayment(ctx context.Context, id string) bool
}

// DefaultMaxQuantity caps units per order.
const DefaultMaxQuantity = 10

const referenceLabel = "Order ID"

// OrderConfig holds checkout settings.
type OrderConfig struct {
	CallbackURL string
	RedirectURL string
	MaxQuantity int
}

// Customer identifies who is buying.
type Customer struct {
	UserID   string
	Username string
	Email    string
	Mobile   string
}

// CheckoutResult is a created order and where to pay for it.
type CheckoutResult struct {
	Order   *model.Order `json:"order"`
	BillURL string       `json:"bill_url"`
}

// OrderService handles checkout and order queries.
type OrderService struct {
	packages repository.PackageStore
	orders   repository.OrderStore
	codes    repository.CodeStore
	gateway  Gateway
	config   OrderConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewOrderService creates an order service.
func NewOrderService(
	packages repository.PackageStore,
	orders repository.OrderStore,
	codes repository.CodeStore,
	gateway Gateway,
	config OrderConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) *OrderService {
	if config.MaxQuantity <= 0 {
		config.MaxQuantity = DefaultMaxQuantity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		packages: packages,
		orders:   orders,
		codes:    codes,
		gateway:  gateway,
		config:   config,
		logger:   logger.Named("orders"),
		metrics:  m,
	}
}

// Checkout creates a pending order for quantity units of a package and a
// gateway bill to pay for it. If the bill cannot be created the order is
// marked failed and the gateway error is returned.
func (s *OrderService) Checkout(ctx context.Context, c Customer, packageID int64, quantity int) (*CheckoutResult, error) {
	if quantity < 1 || quantity > s.config.MaxQuantity {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidQuantity, s.config.MaxQuantity)
	}
	if c.UserID == "" || c.Email == "" {
		return nil, fmt.Errorf("%w: customer identity is required", ErrInvalidInput)
	}

	pkg, err := s.packages.Get(ctx, packageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, ErrPackageInactive
	}

	order := &model.Order{
		ID:            uid.New(),
		UserID:        c.UserID,
		Username:      c.Username,
		Email:         c.Email,
		PackageID:     pkg.ID,
		PackageName:   pkg.Name,
		Quantity:      quantity,
		AecoinTotal:   pkg.AecoinAmount * int64(quantity),
		Amount:        pkg.Price * int64(quantity),
		Status:        model.OrderPending,
		PaymentMethod: model.PaymentMethodBillplz,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(string(model.OrderPending))

	name := c.Username
	if name == "" {
		name = c.Email
	}

	bill, err := s.gateway.CreateBill(ctx, billplz.CreateBillParams{
		Description:     fmt.Sprintf("%dx %s", quantity, pkg.Name),
		Amount:          order.AmountMYR(),
		Name:            name,
		Email:           c.Email,
		Mobile:          strings.TrimSpace(c.Mobile),
		CallbackURL:     s.config.CallbackURL,
		RedirectURL:     s.config.RedirectURL,
		Reference1Label: referenceLabel,
		Reference1:      order.ID,
	})
	s.metrics.RecordBill(err == nil)
	if err != nil {
		s.logger.Error("bill creation failed, aborting checkout",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		// Use a fresh context: the request may already be cancelled.
		if ok, terr := s.orders.Transition(context.WithoutCancel(ctx), order.ID, model.OrderPending, model.OrderFailed, nil); terr != nil {
			s.logger.Error("failed to mark order failed", zap.String("order_id", order.ID), zap.Error(terr))
		} else if ok {
			s.metrics.RecordTransition(string(model.OrderFailed))
		}
		return nil, fmt.Errorf("create bill: %w", err)
	}

	if err := s.orders.SetBill(ctx, order.ID, bill.ID, bill.URL); err != nil {
		return nil, fmt.Errorf("store bill on order: %w", err)
	}
	order.BillID = bill.ID
	order.BillURL = bill.URL

	s.logger.Info("checkout started",
		zap.String("order_id", order.ID),
		zap.String("bill_id", bill.ID),
		zap.Int64("package_id", pkg.ID),
		zap.Int("quantity", quantity),
		zap.Int64("amount_sen", order.Amount),
	)

	return &CheckoutResult{Order: order, BillURL: bill.URL}, nil
}

// List returns the customer's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string, limit, offset uint64) ([]model.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{UserID: userID, Limit: limit, Offset: offset})
}

// Search lists orders across customers.
func (s *OrderService) Search(ctx context.Context, f repository.OrderFilter) ([]model.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	return s.orders.List(ctx, f)
}

// Get returns one of the customer's orders. Orders of other customers are
// reported as not found.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Codes returns the redemption codes of a fulfilled order owned by the customer.
func (s *OrderService) Codes(ctx context.Context, userID, orderID string) ([]model.RedemptionCode, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderFulfilled {
		return nil, ErrOrderNotFulfilled
	}
	return s.codes.ListByOrder(ctx, order.ID)
}
