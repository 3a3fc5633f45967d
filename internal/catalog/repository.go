package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Executor is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	// FindByID returns nil, nil when the product does not exist.
	FindByID(ctx context.Context, productID int64) (*Product, error)
	Save(ctx context.Context, p *Product) error
	// DecreaseStock atomically removes quantity units from the offer, failing
	// with *InsufficientStockError when fewer units are left.
	DecreaseStock(ctx context.Context, productID, offerID int64, quantity int) error
	Count(ctx context.Context) (int, error)
}

type PostgresRepository struct {
	exec Executor
}

func NewPostgresRepository(exec Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec}
}

func (r *PostgresRepository) FindByID(ctx context.Context, productID int64) (*Product, error) {
	var p Product
	err := r.exec.QueryRow(ctx, `SELECT id, label FROM products WHERE id = $1`, productID).Scan(&p.ID, &p.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	rows, err := r.exec.Query(ctx, `
		SELECT id, product_id, price::text, discount_percent, stock_qty, state
		FROM offers
		WHERE product_id = $1
		ORDER BY id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("select offers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		p.Offers = append(p.Offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offers rows: %w", err)
	}

	return &p, nil
}

func scanOffer(row pgx.Row) (*Offer, error) {
	var (
		o     Offer
		price string
		state string
	)
	if err := row.Scan(&o.ID, &o.ProductID, &price, &o.DiscountPercent, &o.StockQty, &state); err != nil {
		return nil, fmt.Errorf("scan offer: %w", err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	o.Price = d
	o.State = State(state)
	return &o, nil
}

// Save upserts the product and its offers. Offers missing from p.Offers are
// deleted. Callers run it inside a transaction.
func (r *PostgresRepository) Save(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if p.ID == 0 {
		if err := r.exec.QueryRow(ctx, `INSERT INTO products (label) VALUES ($1) RETURNING id`, p.Label).Scan(&p.ID); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
	} else {
		if _, err := r.exec.Exec(ctx, `UPDATE products SET label = $2 WHERE id = $1`, p.ID, p.Label); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
	}

	keep := make([]int64, 0, len(p.Offers))
	for _, o := range p.Offers {
		o.ProductID = p.ID
		if o.ID == 0 {
			err := r.exec.QueryRow(ctx, `
				INSERT INTO offers (product_id, price, discount_percent, stock_qty, state)
				VALUES ($1, $2::numeric, $3, $4, $5)
				RETURNING id
			`, p.ID, o.Price.StringFixed(2), o.DiscountPercent, o.StockQty, string(o.State)).Scan(&o.ID)
			if err != nil {
				return fmt.Errorf("insert offer: %w", err)
			}
		} else {
			_, err := r.exec.Exec(ctx, `
				UPDATE offers
				SET price = $3::numeric, discount_percent = $4, stock_qty = $5, state = $6
				WHERE id = $1 AND product_id = $2
			`, o.ID, p.ID, o.Price.StringFixed(2), o.DiscountPercent, o.StockQty, string(o.State))
			if err != nil {
				return fmt.Errorf("update offer %d: %w", o.ID, err)
			}
		}
		keep = append(keep, o.ID)
	}

	if _, err := r.exec.Exec(ctx, `DELETE FROM offers WHERE product_id = $1 AND NOT (id = ANY($2))`, p.ID, keep); err != nil {
		return fmt.Errorf("delete orphan offers: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DecreaseStock(ctx context.Context, productID, offerID int64, quantity int) error {
	tag, err := r.exec.Exec(ctx, `
		UPDATE offers
		SET stock_qty = stock_qty - $3
		WHERE id = $2 AND product_id = $1 AND stock_qty >= $3
	`, productID, offerID, quantity)
	if err != nil {
		return fmt.Errorf("decrease stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &InsufficientStockError{ProductID: productID, OfferID: offerID}
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.exec.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// ResolveOffer loads the product and picks the offer out of its collection.
func ResolveOffer(ctx context.Context, repo Repository, productID, offerID int64) (*Product, *Offer, error) {
	p, err := repo.FindByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, &ProductNotFoundError{ProductID: productID}
	}
	o, ok := p.OfferByID(offerID)
	if !ok {
		return nil, nil, &OfferNotFoundError{OfferID: offerID}
	}
	return p, o, nil
}
