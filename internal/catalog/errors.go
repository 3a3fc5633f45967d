package catalog

import "fmt"

type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product not found for productId=%d", e.ProductID)
}

type OfferNotFoundError struct {
	OfferID int64
}

func (e *OfferNotFoundError) Error() string {
	return fmt.Sprintf("Offer not found for offerId=%d", e.OfferID)
}

// InsufficientStockError reports a requested quantity above the offer stock,
// or an exhausted offer.
type InsufficientStockError struct {
	ProductID int64
	OfferID   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for productId=%d, offerId=%d", e.ProductID, e.OfferID)
}
