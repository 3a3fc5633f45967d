package checkout_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const userID int64 = 1

type recordingPublisher struct {
	mu        sync.Mutex
	err       error
	carts     []*cart.Cart
	sequences []int64
}

func (p *recordingPublisher) PublishCartCheckedOut(ctx context.Context, c *cart.Cart, seq cart.Sequencer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := seq.NextSequence(ctx, "cart-"+strconv.FormatInt(c.ID, 10))
	if err != nil {
		return err
	}
	if p.err != nil {
		return p.err
	}
	p.carts = append(p.carts, c.Clone())
	p.sequences = append(p.sequences, next)
	return nil
}

// newStore holds product 10 with offers 100 (stock 10) and 101 (stock 1).
func newStore() *testutil.MemStore {
	store := testutil.NewMemStore()
	p := &catalog.Product{ID: 10, Label: "Laptop"}
	p.AddOffer(&catalog.Offer{ID: 100, Price: decimal.RequireFromString("999.00"), StockQty: 10, State: catalog.StateNew})
	p.AddOffer(&catalog.Offer{ID: 101, Price: decimal.RequireFromString("799.00"), DiscountPercent: 20, StockQty: 1, State: catalog.StateRefurbished})
	store.AddProduct(p)
	return store
}

func putCart(store *testutil.MemStore, lines ...cart.Line) {
	store.PutCart(&cart.Cart{ID: 7, UserID: userID, Lines: lines})
}

func TestCheckoutDecrementsStockAndDeletesCart(t *testing.T) {
	store := newStore()
	putCart(store, cart.Line{ID: 70, ProductID: 10, OfferID: 100, Quantity: 2})
	pub := &recordingPublisher{}
	svc := checkout.NewService(store, pub, zerolog.Nop())

	snapshot, err := svc.Checkout(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 8, store.Offer(10, 100).StockQty)
	assert.Nil(t, store.Cart(userID))

	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, 2, snapshot.Lines[0].Quantity)
	assert.Equal(t, int64(7), snapshot.ID)
	assert.Equal(t, 8, snapshot.Lines[0].Offer.StockQty, "snapshot reflects decremented stock")
	assert.True(t, snapshot.TotalPrice().Equal(decimal.RequireFromString("1998.00")))

	require.Len(t, pub.carts, 1)
	assert.Equal(t, int64(7), pub.carts[0].ID)
	assert.Equal(t, []int64{1}, pub.sequences)
	assert.Equal(t, int64(1), store.Sequence("cart-7"), "sequence committed with the checkout")
}

func TestCheckoutInsufficientStockKeepsEverything(t *testing.T) {
	store := newStore()
	putCart(store, cart.Line{ID: 70, ProductID: 10, OfferID: 100, Quantity: 11})
	pub := &recordingPublisher{}
	svc := checkout.NewService(store, pub, zerolog.Nop())

	_, err := svc.Checkout(context.Background(), userID)

	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(100), stockErr.OfferID)
	assert.Equal(t, 10, store.Offer(10, 100).StockQty)
	require.NotNil(t, store.Cart(userID))
	assert.Equal(t, 11, store.Cart(userID).Lines[0].Quantity)
	assert.Empty(t, pub.carts)
}

func TestCheckoutFailingLaterLineRollsBackEarlierLines(t *testing.T) {
	store := newStore()
	putCart(store,
		cart.Line{ID: 70, ProductID: 10, OfferID: 100, Quantity: 3},
		cart.Line{ID: 71, ProductID: 10, OfferID: 101, Quantity: 2},
	)
	svc := checkout.NewService(store, nil, zerolog.Nop())

	_, err := svc.Checkout(context.Background(), userID)

	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(101), stockErr.OfferID)
	assert.Equal(t, 1, store.StockDecrements(), "first line was decremented before the failure")
	assert.Equal(t, 10, store.Offer(10, 100).StockQty, "first line decrement rolled back")
	assert.Equal(t, 1, store.Offer(10, 101).StockQty)
	assert.NotNil(t, store.Cart(userID))
	assert.Zero(t, store.CartDeletes())
}

func TestCheckoutMultipleLines(t *testing.T) {
	store := newStore()
	putCart(store,
		cart.Line{ID: 70, ProductID: 10, OfferID: 100, Quantity: 3},
		cart.Line{ID: 71, ProductID: 10, OfferID: 101, Quantity: 1},
	)
	svc := checkout.NewService(store, nil, zerolog.Nop())

	snapshot, err := svc.Checkout(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 7, store.Offer(10, 100).StockQty)
	assert.True(t, store.Offer(10, 101).HasEmptyStock())
	assert.True(t, snapshot.TotalPrice().Equal(decimal.RequireFromString("3636.20")))
}

func TestCheckoutMissingCart(t *testing.T) {
	svc := checkout.NewService(newStore(), nil, zerolog.Nop())

	_, err := svc.Checkout(context.Background(), userID)

	var notFound *cart.CartNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, userID, notFound.UserID)
}

func TestCheckoutProductOrOfferGone(t *testing.T) {
	store := newStore()
	putCart(store, cart.Line{ID: 70, ProductID: 99, OfferID: 100, Quantity: 1})
	svc := checkout.NewService(store, nil, zerolog.Nop())

	var productErr *catalog.ProductNotFoundError
	_, err := svc.Checkout(context.Background(), userID)
	require.ErrorAs(t, err, &productErr)

	putCart(store, cart.Line{ID: 70, ProductID: 10, OfferID: 555, Quantity: 1})
	var offerErr *catalog.OfferNotFoundError
	_, err = svc.Checkout(context.Background(), userID)
	require.ErrorAs(t, err, &offerErr)

	assert.NotNil(t, store.Cart(userID))
}

func TestCheckoutPublishFailureRollsBack(t *testing.T) {
	store := newStore()
	putCart(store, cart.Line{ID: 70, ProductID: 10, OfferID: 100, Quantity: 2})
	pubErr := errors.New("broker unreachable")
	svc := checkout.NewService(store, &recordingPublisher{err: pubErr}, zerolog.Nop())

	_, err := svc.Checkout(context.Background(), userID)
	require.ErrorIs(t, err, pubErr)

	assert.Equal(t, 10, store.Offer(10, 100).StockQty)
	assert.NotNil(t, store.Cart(userID))
	assert.Zero(t, store.Sequence("cart-7"), "reserved sequence rolled back with the checkout")
}

func TestCheckoutEmptyCartIsNotPublished(t *testing.T) {
	store := newStore()
	putCart(store)
	pub := &recordingPublisher{}
	svc := checkout.NewService(store, pub, zerolog.Nop())

	snapshot, err := svc.Checkout(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)
	assert.Nil(t, store.Cart(userID))
	assert.Empty(t, pub.carts)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	store := newStore()
	for u := int64(1); u <= 5; u++ {
		store.PutCart(&cart.Cart{ID: 100 + u, UserID: u, Lines: []cart.Line{
			{ID: 200 + u, ProductID: 10, OfferID: 100, Quantity: 3},
		}})
	}
	svc := checkout.NewService(store, nil, zerolog.Nop())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for u := int64(1); u <= 5; u++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			if _, err := svc.Checkout(context.Background(), uid); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 1, store.Offer(10, 100).StockQty)
}
