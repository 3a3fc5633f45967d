package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
)

type cartResponse struct {
	UserID     int64          `json:"userId"`
	Lines      []lineResponse `json:"lines"`
	TotalPrice string         `json:"totalPrice"`
}

type lineResponse struct {
	ProductID int64         `json:"productId"`
	OfferID   int64         `json:"offerId"`
	State     catalog.State `json:"state"`
	Quantity  int           `json:"quantity"`
	UnitPrice string        `json:"unitPrice"`
	LineTotal string        `json:"lineTotal"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		UserID:     c.UserID,
		Lines:      make([]lineResponse, 0, len(c.Lines)),
		TotalPrice: c.TotalPrice().StringFixed(2),
	}
	for i := range c.Lines {
		l := &c.Lines[i]
		lr := lineResponse{
			ProductID: l.ProductID,
			OfferID:   l.OfferID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice().StringFixed(2),
			LineTotal: l.Total().StringFixed(2),
		}
		if l.Offer != nil {
			lr.State = l.Offer.State
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
