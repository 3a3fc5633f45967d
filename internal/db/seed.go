package db

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
)

// Seed inserts the demo catalog when no product exists yet.
func Seed(ctx context.Context, tx cart.Transactor, logger zerolog.Logger) error {
	return tx.InTx(ctx, func(ctx context.Context, s cart.Stores) error {
		n, err := s.Products.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Debug().Int("products", n).Msg("catalog already seeded")
			return nil
		}

		p := catalog.NewProduct("iPhone 14")
		p.AddOffer(&catalog.Offer{
			Price:           decimal.RequireFromString("999.00"),
			DiscountPercent: 0,
			StockQty:        5,
			State:           catalog.StateNew,
		})
		p.AddOffer(&catalog.Offer{
			Price:           decimal.RequireFromString("799.00"),
			DiscountPercent: 20,
			StockQty:        5,
			State:           catalog.StateRefurbished,
		})
		if err := s.Products.Save(ctx, p); err != nil {
			return err
		}

		logger.Info().Int64("product_id", p.ID).Str("label", p.Label).Int("offers", len(p.Offers)).Msg("seeded catalog")
		return nil
	})
}
