package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateNew         State = "NEUF"
	StateRefurbished State = "RECONDITIONNE"
)

func (s State) Valid() bool {
	return s == StateNew || s == StateRefurbished
}

var (
	ErrInvalidOffer   = errors.New("invalid offer")
	ErrInvalidProduct = errors.New("invalid product")
)

var hundred = decimal.NewFromInt(100)

// Offer is a purchasable configuration of a product.
type Offer struct {
	ID              int64           `json:"offerId"`
	ProductID       int64           `json:"productId"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discountPercent"`
	StockQty        int             `json:"stockQty"`
	State           State           `json:"state"`
}

// FinalUnitPrice returns the price minus the discount amount, the discount
// being rounded half-up to two decimal places before the subtraction.
func (o *Offer) FinalUnitPrice() decimal.Decimal {
	discount := o.Price.
		Mul(decimal.NewFromInt(int64(o.DiscountPercent))).
		Div(hundred).
		Round(2)
	return o.Price.Sub(discount)
}

func (o *Offer) HasSufficientStock(quantity int) bool {
	return o.StockQty >= quantity
}

func (o *Offer) HasEmptyStock() bool {
	return o.StockQty == 0
}

// DecreaseStock never lets the stock go below zero.
func (o *Offer) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: decrement must be positive, got %d", ErrInvalidOffer, quantity)
	}
	if !o.HasSufficientStock(quantity) {
		return &InsufficientStockError{ProductID: o.ProductID, OfferID: o.ID}
	}
	o.StockQty -= quantity
	return nil
}

func (o *Offer) Validate() error {
	switch {
	case o.Price.IsNegative():
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidOffer)
	case o.DiscountPercent < 0 || o.DiscountPercent > 100:
		return fmt.Errorf("%w: discountPercent must be between 0 and 100", ErrInvalidOffer)
	case o.StockQty < 0:
		return fmt.Errorf("%w: stockQty must be >= 0", ErrInvalidOffer)
	case !o.State.Valid():
		return fmt.Errorf("%w: unknown state %q", ErrInvalidOffer, o.State)
	}
	return nil
}

type Product struct {
	ID     int64    `json:"productId"`
	Label  string   `json:"label"`
	Offers []*Offer `json:"offers"`
}

func NewProduct(label string) *Product {
	return &Product{Label: label}
}

// AddOffer appends the offer and points it back at this product.
func (p *Product) AddOffer(o *Offer) {
	o.ProductID = p.ID
	p.Offers = append(p.Offers, o)
}

func (p *Product) OfferByID(offerID int64) (*Offer, bool) {
	for _, o := range p.Offers {
		if o.ID == offerID {
			return o, true
		}
	}
	return nil, false
}

func (p *Product) Validate() error {
	if p.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidProduct)
	}
	for _, o := range p.Offers {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy, offers included.
func (p *Product) Clone() *Product {
	cp := &Product{ID: p.ID, Label: p.Label, Offers: make([]*Offer, 0, len(p.Offers))}
	for _, o := range p.Offers {
		oc := *o
		cp.Offers = append(cp.Offers, &oc)
	}
	return cp
}
