package order

import (
	"fmt"

	"github.com/xenking/local-market/internal/domain/apperr"
)

// Sentinel errors for order operations.
var (
	ErrEmptyItems = apperr.Validation("items required")
	ErrNotFound   = apperr.NotFound("order not found")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Kind() apperr.Kind { return apperr.KindNotFound }

// InvalidQuantityError indicates a line item quantity outside 1..MaxQuantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for product %s", MaxQuantity, e.ProductID)
}

func (e *InvalidQuantityError) Kind() apperr.Kind { return apperr.KindValidation }
