package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("resource already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrForbidden         = errors.New("forbidden")

	ErrValidation           = errors.New("validation failed")
	ErrEmptyCart            = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrNonPositiveTotal     = fmt.Errorf("%w: total must be greater than zero", ErrValidation)
	ErrTotalOutOfRange      = fmt.Errorf("%w: total out of range", ErrValidation)
	ErrInsufficientPayment  = fmt.Errorf("%w: cash nominal is less than total", ErrValidation)
	ErrInvalidPaymentMethod = fmt.Errorf("%w: unknown payment method", ErrValidation)
)

// InsufficientStockError carries the rejected decrement. It matches ErrInsufficientStock.
type InsufficientStockError struct {
	Barcode   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Barcode, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
