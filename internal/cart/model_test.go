package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
)

func laptop() (*catalog.Product, *catalog.Offer) {
	p := &catalog.Product{ID: 10, Label: "Laptop"}
	o := &catalog.Offer{ID: 100, Price: decimal.RequireFromString("999.00"), StockQty: 5, State: catalog.StateNew}
	p.AddOffer(o)
	return p, o
}

func TestNewLineRejectsNonPositiveQuantity(t *testing.T) {
	p, o := laptop()

	_, err := NewLine(p, o, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	l, err := NewLine(p, o, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), l.ProductID)
	assert.Equal(t, int64(100), l.OfferID)

	require.ErrorIs(t, l.UpdateQuantity(-1), ErrInvalidQuantity)
	assert.Equal(t, 2, l.Quantity)
}

func TestCartOneLinePerPair(t *testing.T) {
	p, o := laptop()
	c := New(1)

	l, err := NewLine(p, o, 1)
	require.NoError(t, err)
	require.NoError(t, c.AddLine(l))
	require.ErrorIs(t, c.AddLine(l), ErrDuplicateLine)
	assert.Len(t, c.Lines, 1)

	found, ok := c.FindLine(10, 100)
	require.True(t, ok)
	assert.Equal(t, 1, found.Quantity)

	_, ok = c.FindLine(10, 101)
	assert.False(t, ok)
}

func TestCartUpdateItemQuantity(t *testing.T) {
	p, o := laptop()
	c := New(1)
	l, _ := NewLine(p, o, 1)
	require.NoError(t, c.AddLine(l))

	require.NoError(t, c.UpdateItemQuantity(10, 100, 4))
	assert.Equal(t, 4, c.Lines[0].Quantity)

	var notFound *LineNotFoundError
	require.ErrorAs(t, c.UpdateItemQuantity(10, 999, 1), &notFound)
	assert.Equal(t, "Cart has no line for productId=10 and offerId=999", notFound.Error())

	require.ErrorIs(t, c.UpdateItemQuantity(10, 100, 0), ErrInvalidQuantity)
	assert.Equal(t, 4, c.Lines[0].Quantity)
}

func TestCartRemoveLine(t *testing.T) {
	p, o := laptop()
	c := New(1)
	l, _ := NewLine(p, o, 1)
	require.NoError(t, c.AddLine(l))

	assert.False(t, c.RemoveLine(10, 999))
	assert.Len(t, c.Lines, 1)

	assert.True(t, c.RemoveLine(10, 100))
	assert.True(t, c.IsEmpty())
}

func TestCartTotals(t *testing.T) {
	p, o := laptop()
	refurb := &catalog.Offer{ID: 101, Price: decimal.RequireFromString("799.00"), DiscountPercent: 20, StockQty: 5, State: catalog.StateRefurbished}
	p.AddOffer(refurb)

	c := New(1)
	l1, _ := NewLine(p, o, 2)
	l2, _ := NewLine(p, refurb, 1)
	require.NoError(t, c.AddLine(l1))
	require.NoError(t, c.AddLine(l2))

	assert.True(t, c.Lines[0].Total().Equal(decimal.RequireFromString("1998.00")))
	assert.True(t, c.Lines[1].UnitPrice().Equal(decimal.RequireFromString("639.20")))
	assert.True(t, c.TotalPrice().Equal(decimal.RequireFromString("2637.20")))

	assert.True(t, (&Line{Quantity: 3}).Total().IsZero(), "line without offer view prices at zero")
}

func TestCartCloneIsDeep(t *testing.T) {
	p, o := laptop()
	c := &Cart{ID: 7, UserID: 1}
	l, _ := NewLine(p, o, 1)
	require.NoError(t, c.AddLine(l))

	cp := c.Clone()
	cp.Lines[0].Quantity = 9
	cp.Lines[0].Offer.StockQty = 0

	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, 5, c.Lines[0].Offer.StockQty)
}

func TestCartNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Cart not found for userId=42", (&CartNotFoundError{UserID: 42}).Error())
}
