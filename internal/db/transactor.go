package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/events"
)

// TxBeginner matches *pgxpool.Pool so tests can substitute pgxmock.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Transactor binds the cart, product and sequence stores to one pgx
// transaction per InTx call.
type Transactor struct {
	db   TxBeginner
	opts pgx.TxOptions
}

func NewTransactor(db TxBeginner) *Transactor {
	return &Transactor{db: db, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, s cart.Stores) error) error {
	tx, err := t.db.BeginTx(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	done := false
	defer func() {
		if !done {
			// rollback must run even when ctx was cancelled mid-transaction
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	stores := cart.Stores{
		Carts:     cart.NewPostgresRepository(tx),
		Products:  catalog.NewPostgresRepository(tx),
		Sequences: events.NewSequenceRepository(tx),
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}

	done = true
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
