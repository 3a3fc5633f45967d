package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresRepository struct {
	exec Executor
}

func NewPostgresRepository(exec Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec}
}

// FindByUserID locks the cart row until the surrounding transaction ends, so
// concurrent operations on one user's cart run one after the other.
func (r *PostgresRepository) FindByUserID(ctx context.Context, userID int64) (*Cart, error) {
	c := Cart{Lines: []Line{}}
	err := r.exec.QueryRow(ctx, `SELECT id, user_id FROM carts WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&c.ID, &c.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.exec.Query(ctx, `
		SELECT l.id, l.product_id, l.offer_id, l.quantity,
		       o.price::text, o.discount_percent, o.stock_qty, o.state
		FROM cart_lines l
		JOIN offers o ON o.id = l.offer_id
		WHERE l.cart_id = $1
		ORDER BY l.id
	`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l     Line
			o     catalog.Offer
			price string
			state string
		)
		if err := rows.Scan(&l.ID, &l.ProductID, &l.OfferID, &l.Quantity,
			&price, &o.DiscountPercent, &o.StockQty, &state); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", price, err)
		}
		o.ID, o.ProductID, o.State = l.OfferID, l.ProductID, catalog.State(state)
		l.Offer = &o
		c.Lines = append(c.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart lines rows: %w", err)
	}
	return &c, nil
}

// Create tolerates a concurrent insert for the same user: both callers end
// up with the same cart.
func (r *PostgresRepository) Create(ctx context.Context, userID int64) (*Cart, error) {
	if _, err := r.exec.Exec(ctx, `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	c, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("cart for user %d vanished after insert", userID)
	}
	return c, nil
}

// Save writes the cart lines as they are in c. Lines no longer present are
// deleted and new lines get their ids assigned.
func (r *PostgresRepository) Save(ctx context.Context, c *Cart) error {
	if c.ID == 0 {
		err := r.exec.QueryRow(ctx, `
			INSERT INTO carts (user_id) VALUES ($1)
			ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			RETURNING id
		`, c.UserID).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("upsert cart: %w", err)
		}
	}

	keep := make([]int64, 0, len(c.Lines))
	for i := range c.Lines {
		l := &c.Lines[i]
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		err := r.exec.QueryRow(ctx, `
			INSERT INTO cart_lines (cart_id, product_id, offer_id, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (cart_id, product_id, offer_id) DO UPDATE SET quantity = EXCLUDED.quantity
			RETURNING id
		`, c.ID, l.ProductID, l.OfferID, l.Quantity).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("upsert cart line: %w", err)
		}
		keep = append(keep, l.ID)
	}

	if _, err := r.exec.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND NOT (id = ANY($2))`, c.ID, keep); err != nil {
		return fmt.Errorf("delete removed cart lines: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, c *Cart) error {
	if c.ID == 0 {
		return nil
	}
	if _, err := r.exec.Exec(ctx, `DELETE FROM carts WHERE id = $1`, c.ID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
