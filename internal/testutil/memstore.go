package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
)

// MemStore is an in-memory cart.Transactor. Each InTx works on a copy of
// the state which replaces it only when fn succeeds. Transactions are
// serialized. Call counters are not rolled back.
type MemStore struct {
	mu        sync.Mutex
	products  map[int64]*catalog.Product
	carts     map[int64]*cart.Cart
	sequences map[string]int64
	nextID    int64

	cartSaves       int
	cartDeletes     int
	stockDecrements int
	commits         int
	rollbacks       int

	// CartSaveErr, when set, is returned by every cart Save.
	CartSaveErr error
}

func NewMemStore() *MemStore {
	return &MemStore{
		products:  map[int64]*catalog.Product{},
		carts:     map[int64]*cart.Cart{},
		sequences: map[string]int64{},
		nextID:    1000,
	}
}

// AddProduct stores p, keeping any ids already set.
func (m *MemStore) AddProduct(p *catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveProduct(m.products, p)
}

// PutCart stores c, keeping any ids already set.
func (m *MemStore) PutCart(c *cart.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCart(m.carts, c)
}

func (m *MemStore) Product(id int64) *catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil
	}
	return p.Clone()
}

func (m *MemStore) Offer(productID, offerID int64) *catalog.Offer {
	p := m.Product(productID)
	if p == nil {
		return nil
	}
	o, _ := p.OfferByID(offerID)
	return o
}

func (m *MemStore) Cart(userID int64) *cart.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil
	}
	return c.Clone()
}

// Sequence is the last committed sequence of a partition.
func (m *MemStore) Sequence(partitionKey string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sequences[partitionKey]
}

func (m *MemStore) CartSaves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cartSaves
}

func (m *MemStore) CartDeletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cartDeletes
}

func (m *MemStore) StockDecrements() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stockDecrements
}

func (m *MemStore) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

func (m *MemStore) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

func (m *MemStore) InTx(ctx context.Context, fn func(ctx context.Context, s cart.Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &memTx{m: m, products: map[int64]*catalog.Product{}, carts: map[int64]*cart.Cart{}, sequences: map[string]int64{}}
	for key, seq := range m.sequences {
		t.sequences[key] = seq
	}
	for id, p := range m.products {
		t.products[id] = p.Clone()
	}
	for uid, c := range m.carts {
		t.carts[uid] = c.Clone()
	}

	if err := fn(ctx, cart.Stores{Carts: memCarts{t}, Products: memProducts{t}, Sequences: memSequences{t}}); err != nil {
		m.rollbacks++
		return err
	}
	m.products, m.carts, m.sequences = t.products, t.carts, t.sequences
	m.commits++
	return nil
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemStore) saveProduct(into map[int64]*catalog.Product, p *catalog.Product) {
	if p.ID == 0 {
		p.ID = m.id()
	}
	for _, o := range p.Offers {
		o.ProductID = p.ID
		if o.ID == 0 {
			o.ID = m.id()
		}
	}
	into[p.ID] = p.Clone()
}

func (m *MemStore) saveCart(into map[int64]*cart.Cart, c *cart.Cart) {
	if c.ID == 0 {
		c.ID = m.id()
	}
	for i := range c.Lines {
		if c.Lines[i].ID == 0 {
			c.Lines[i].ID = m.id()
		}
	}
	into[c.UserID] = c.Clone()
}

type memTx struct {
	m         *MemStore
	products  map[int64]*catalog.Product
	carts     map[int64]*cart.Cart
	sequences map[string]int64
}

// withOffers refreshes the offer views of c from the products in t.
func (t *memTx) withOffers(c *cart.Cart) *cart.Cart {
	cp := c.Clone()
	for i := range cp.Lines {
		l := &cp.Lines[i]
		if p, ok := t.products[l.ProductID]; ok {
			if o, ok := p.OfferByID(l.OfferID); ok {
				oc := *o
				l.Offer = &oc
			}
		}
	}
	return cp
}

type memCarts struct{ t *memTx }

func (r memCarts) FindByUserID(_ context.Context, userID int64) (*cart.Cart, error) {
	c, ok := r.t.carts[userID]
	if !ok {
		return nil, nil
	}
	return r.t.withOffers(c), nil
}

func (r memCarts) Create(ctx context.Context, userID int64) (*cart.Cart, error) {
	if _, ok := r.t.carts[userID]; !ok {
		r.t.m.saveCart(r.t.carts, cart.New(userID))
	}
	return r.FindByUserID(ctx, userID)
}

func (r memCarts) Save(_ context.Context, c *cart.Cart) error {
	r.t.m.cartSaves++
	if r.t.m.CartSaveErr != nil {
		return r.t.m.CartSaveErr
	}
	for _, l := range c.Lines {
		if l.Quantity <= 0 {
			return cart.ErrInvalidQuantity
		}
	}
	r.t.m.saveCart(r.t.carts, c)
	return nil
}

func (r memCarts) Delete(_ context.Context, c *cart.Cart) error {
	r.t.m.cartDeletes++
	delete(r.t.carts, c.UserID)
	return nil
}

type memProducts struct{ t *memTx }

func (r memProducts) FindByID(_ context.Context, productID int64) (*catalog.Product, error) {
	p, ok := r.t.products[productID]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (r memProducts) Save(_ context.Context, p *catalog.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.t.m.saveProduct(r.t.products, p)
	return nil
}

func (r memProducts) DecreaseStock(_ context.Context, productID, offerID int64, quantity int) error {
	r.t.m.stockDecrements++
	p, ok := r.t.products[productID]
	if !ok {
		return &catalog.InsufficientStockError{ProductID: productID, OfferID: offerID}
	}
	o, ok := p.OfferByID(offerID)
	if !ok || !o.HasSufficientStock(quantity) {
		return &catalog.InsufficientStockError{ProductID: productID, OfferID: offerID}
	}
	o.StockQty -= quantity
	return nil
}

func (r memProducts) Count(context.Context) (int, error) {
	return len(r.t.products), nil
}

type memSequences struct{ t *memTx }

func (r memSequences) NextSequence(_ context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, errors.New("partition key is required")
	}
	r.t.sequences[partitionKey]++
	return r.t.sequences[partitionKey], nil
}
