package service

import "errors"

// Service errors. Handlers map these to API responses.
var (
	ErrPackageNotFound   = errors.New("package not found")
	ErrPackageInactive   = errors.New("package is not available")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotFulfilled = errors.New("order has not been fulfilled")
	ErrUnknownBill       = errors.New("no order for bill")
	ErrMissingBillID     = errors.New("missing bill id")
	ErrRankingNotFound   = errors.New("ranking not found")
	ErrHeroNotFound      = errors.New("hero setting not found")
	ErrInvalidSession    = errors.New("invalid or expired session")
	ErrInvalidInput      = errors.New("invalid input")
)
