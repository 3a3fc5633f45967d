package checkout

import (
	"context"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
	"github.com/rs/zerolog"
)

// Publisher announces a completed checkout. It runs inside the checkout
// transaction and draws the event sequence from seq, which is bound to the
// same transaction; returning an error aborts the checkout.
type Publisher interface {
	PublishCartCheckedOut(ctx context.Context, c *cart.Cart, seq cart.Sequencer) error
}

type Service struct {
	tx        cart.Transactor
	publisher Publisher
	logger    zerolog.Logger
}

// NewService accepts a nil publisher, in which case checkouts are not
// announced.
func NewService(tx cart.Transactor, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{tx: tx, publisher: publisher, logger: logger.With().Str("component", "checkout").Logger()}
}

// Checkout takes stock for every line of the user's cart and deletes the
// cart, all in one transaction. It returns the cart as it was before
// deletion. Any failing line rolls back the decrements of earlier lines and
// keeps the cart.
func (s *Service) Checkout(ctx context.Context, userID int64) (*cart.Cart, error) {
	var snapshot *cart.Cart
	err := s.tx.InTx(ctx, func(ctx context.Context, st cart.Stores) error {
		c, err := st.Carts.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if c == nil {
			return &cart.CartNotFoundError{UserID: userID}
		}

		for i := range c.Lines {
			l := &c.Lines[i]
			_, o, err := catalog.ResolveOffer(ctx, st.Products, l.ProductID, l.OfferID)
			if err != nil {
				return err
			}
			if !o.HasSufficientStock(l.Quantity) {
				return &catalog.InsufficientStockError{ProductID: l.ProductID, OfferID: l.OfferID}
			}
			// The conditional update re-checks stock under the row lock, so
			// a concurrent checkout that won the race still fails here.
			if err := st.Products.DecreaseStock(ctx, l.ProductID, l.OfferID, l.Quantity); err != nil {
				return err
			}
			if err := o.DecreaseStock(l.Quantity); err != nil {
				return err
			}
			l.Offer = o
		}

		if err := st.Carts.Delete(ctx, c); err != nil {
			return err
		}

		if s.publisher != nil && !c.IsEmpty() {
			if err := s.publisher.PublishCartCheckedOut(ctx, c, st.Sequences); err != nil {
				return fmt.Errorf("publish cart checked out: %w", err)
			}
		}
		snapshot = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", userID).Int64("cart_id", snapshot.ID).Int("lines", len(snapshot.Lines)).Msg("checkout completed")
	return snapshot, nil
}
