package cart

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrDuplicateLine   = errors.New("cart already has a line for this product and offer")
)

type CartNotFoundError struct {
	UserID int64
}

func (e *CartNotFoundError) Error() string {
	return fmt.Sprintf("Cart not found for userId=%d", e.UserID)
}

type LineNotFoundError struct {
	ProductID int64
	OfferID   int64
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("Cart has no line for productId=%d and offerId=%d", e.ProductID, e.OfferID)
}
