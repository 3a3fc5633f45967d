package cart

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
)

type Repository interface {
	// FindByUserID returns nil, nil when the user has no cart.
	FindByUserID(ctx context.Context, userID int64) (*Cart, error)
	// Create returns the user's cart, inserting an empty one if needed.
	Create(ctx context.Context, userID int64) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, c *Cart) error
}

// Sequencer hands out per-partition event sequence numbers.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// Stores are the repositories bound to one unit of work.
type Stores struct {
	Carts     Repository
	Products  catalog.Repository
	Sequences Sequencer
}

// Transactor runs fn in a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
