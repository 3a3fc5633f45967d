package cart

import (
	"fmt"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
	"github.com/shopspring/decimal"
)

// Line is one (product, offer) entry of a cart. Offer is a read-only view
// of the referenced offer, loaded with the cart; a line never owns it.
type Line struct {
	ID        int64
	ProductID int64
	OfferID   int64
	Quantity  int
	Offer     *catalog.Offer
}

func NewLine(p *catalog.Product, o *catalog.Offer, quantity int) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	return Line{ProductID: p.ID, OfferID: o.ID, Quantity: quantity, Offer: o}, nil
}

func (l *Line) UpdateQuantity(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	l.Quantity = quantity
	return nil
}

// UnitPrice is the discounted offer price, zero when the offer view is not
// loaded.
func (l *Line) UnitPrice() decimal.Decimal {
	if l.Offer == nil {
		return decimal.Zero
	}
	return l.Offer.FinalUnitPrice()
}

func (l *Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l *Line) matches(productID, offerID int64) bool {
	return l.ProductID == productID && l.OfferID == offerID
}

type Cart struct {
	ID     int64
	UserID int64
	Lines  []Line
}

func New(userID int64) *Cart {
	return &Cart{UserID: userID, Lines: []Line{}}
}

// FindLine returns a pointer into c.Lines, valid until the next AddLine or
// RemoveLine.
func (c *Cart) FindLine(productID, offerID int64) (*Line, bool) {
	for i := range c.Lines {
		if c.Lines[i].matches(productID, offerID) {
			return &c.Lines[i], true
		}
	}
	return nil, false
}

func (c *Cart) AddLine(l Line) error {
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, ok := c.FindLine(l.ProductID, l.OfferID); ok {
		return fmt.Errorf("%w: productId=%d offerId=%d", ErrDuplicateLine, l.ProductID, l.OfferID)
	}
	c.Lines = append(c.Lines, l)
	return nil
}

func (c *Cart) UpdateItemQuantity(productID, offerID int64, quantity int) error {
	l, ok := c.FindLine(productID, offerID)
	if !ok {
		return &LineNotFoundError{ProductID: productID, OfferID: offerID}
	}
	return l.UpdateQuantity(quantity)
}

// RemoveLine reports whether a line was removed.
func (c *Cart) RemoveLine(productID, offerID int64) bool {
	for i := range c.Lines {
		if c.Lines[i].matches(productID, offerID) {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Lines {
		total = total.Add(c.Lines[i].Total())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Clone copies the cart, its lines and their offer views.
func (c *Cart) Clone() *Cart {
	cp := &Cart{ID: c.ID, UserID: c.UserID, Lines: make([]Line, len(c.Lines))}
	for i, l := range c.Lines {
		if l.Offer != nil {
			o := *l.Offer
			l.Offer = &o
		}
		cp.Lines[i] = l
	}
	return cp
}
