package cart

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
	"github.com/rs/zerolog"
)

// Service applies cart mutations against offer stock. Every call is one
// transaction: a failed call leaves neither the cart nor stock modified.
// Stock is checked, never reserved; checkout is where units are taken.
type Service struct {
	tx     Transactor
	logger zerolog.Logger
}

func NewService(tx Transactor, logger zerolog.Logger) *Service {
	return &Service{tx: tx, logger: logger.With().Str("component", "cart").Logger()}
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *Service) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	var out *Cart
	err := s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		c, err := findOrCreate(ctx, st.Carts, userID)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddItem adds one unit of the offer to the cart, creating the line or
// incrementing its quantity.
func (s *Service) AddItem(ctx context.Context, userID, productID, offerID int64) error {
	err := s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		c, err := findOrCreate(ctx, st.Carts, userID)
		if err != nil {
			return err
		}
		p, o, err := catalog.ResolveOffer(ctx, st.Products, productID, offerID)
		if err != nil {
			return err
		}

		if l, ok := c.FindLine(productID, offerID); ok {
			next := l.Quantity + 1
			if !o.HasSufficientStock(next) {
				return &catalog.InsufficientStockError{ProductID: productID, OfferID: offerID}
			}
			if err := l.UpdateQuantity(next); err != nil {
				return err
			}
		} else {
			if o.HasEmptyStock() {
				return &catalog.InsufficientStockError{ProductID: productID, OfferID: offerID}
			}
			l, err := NewLine(p, o, 1)
			if err != nil {
				return err
			}
			if err := c.AddLine(l); err != nil {
				return err
			}
		}
		return st.Carts.Save(ctx, c)
	})
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("user_id", userID).Int64("product_id", productID).Int64("offer_id", offerID).Msg("item added")
	return nil
}

// UpdateItemQuantity sets the quantity of an existing line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID, offerID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	err := s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		c, err := st.Carts.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if c == nil {
			return &CartNotFoundError{UserID: userID}
		}
		_, o, err := catalog.ResolveOffer(ctx, st.Products, productID, offerID)
		if err != nil {
			return err
		}
		if _, ok := c.FindLine(productID, offerID); !ok {
			return &LineNotFoundError{ProductID: productID, OfferID: offerID}
		}
		if !o.HasSufficientStock(quantity) {
			return &catalog.InsufficientStockError{ProductID: productID, OfferID: offerID}
		}
		if err := c.UpdateItemQuantity(productID, offerID, quantity); err != nil {
			return err
		}
		return st.Carts.Save(ctx, c)
	})
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("user_id", userID).Int64("product_id", productID).Int64("offer_id", offerID).
		Int("quantity", quantity).Msg("item quantity updated")
	return nil
}

// RemoveItem drops the matching line if any. A missing line is not an error
// and the cart is saved either way.
func (s *Service) RemoveItem(ctx context.Context, userID, productID, offerID int64) error {
	var removed bool
	err := s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		c, err := st.Carts.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if c == nil {
			return &CartNotFoundError{UserID: userID}
		}
		removed = c.RemoveLine(productID, offerID)
		return st.Carts.Save(ctx, c)
	})
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("user_id", userID).Int64("product_id", productID).Int64("offer_id", offerID).
		Bool("removed", removed).Msg("item removed")
	return nil
}

func findOrCreate(ctx context.Context, carts Repository, userID int64) (*Cart, error) {
	c, err := carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	return carts.Create(ctx, userID)
}
