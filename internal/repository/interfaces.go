package repository

import (
	"context"
	"time"

	"aecoin-store-api/internal/model"
)

// PackageStore defines catalog data access methods.
type PackageStore interface {
	List(ctx context.Context, activeOnly bool) ([]model.Package, error)
	Get(ctx context.Context, id int64) (*model.Package, error)
	Create(ctx context.Context, p *model.Package) error
	Update(ctx context.Context, p *model.Package) error
	Delete(ctx context.Context, id int64) error
}

// OrderStore defines order data access methods.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	Get(ctx context.Context, id string) (*model.Order, error)
	GetByBillID(ctx context.Context, billID string) (*model.Order, error)
	List(ctx context.Context, f OrderFilter) ([]model.Order, error)
	SetBill(ctx context.Context, id, billID, billURL string) error

	// Transition applies from -> to only if the order is still in from.
	Transition(ctx context.Context, id string, from, to model.OrderStatus, paidAt *time.Time) (bool, error)

	// Fulfill applies paid -> fulfilled and stores codes atomically.
	Fulfill(ctx context.Context, id string, codes []model.RedemptionCode) (bool, error)

	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// CodeStore defines redemption code data access methods.
type CodeStore interface {
	ListByOrder(ctx context.Context, orderID string) ([]model.RedemptionCode, error)
}

// RankingStore defines leaderboard data access methods.
type RankingStore interface {
	List(ctx context.Context) ([]model.PlayerRanking, error)
	Get(ctx context.Context, id int64) (*model.PlayerRanking, error)
	Upsert(ctx context.Context, p *model.PlayerRanking) error
	Update(ctx context.Context, p *model.PlayerRanking) error
	Delete(ctx context.Context, id int64) error
}

// HeroStore defines hero banner data access methods.
type HeroStore interface {
	List(ctx context.Context) ([]model.HeroSetting, error)
	Get(ctx context.Context, id int64) (*model.HeroSetting, error)
	GetActive(ctx context.Context) (*model.HeroSetting, error)
	Create(ctx context.Context, h *model.HeroSetting) error
	Update(ctx context.Context, h *model.HeroSetting) error
	Delete(ctx context.Context, id int64) error
}

// PaymentEventLog records inbound gateway messages for audit.
type PaymentEventLog interface {
	Record(ctx context.Context, e *model.PaymentEvent) error
	ListByBill(ctx context.Context, billID string, limit int64) ([]model.PaymentEvent, error)
	Close() error
}

var (
	_ PackageStore    = (*PackageRepository)(nil)
	_ OrderStore      = (*OrderRepository)(nil)
	_ CodeStore       = (*CodeRepository)(nil)
	_ RankingStore    = (*RankingRepository)(nil)
	_ HeroStore       = (*HeroRepository)(nil)
	_ PaymentEventLog = (*MongoPaymentEventLog)(nil)
	_ PaymentEventLog = (*LoggingPaymentEventLog)(nil)
)
