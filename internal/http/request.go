package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Pointers distinguish a missing field from a zero value.
type addItemRequest struct {
	ProductID *int64 `json:"productId"`
	OfferID   *int64 `json:"offerId"`
}

func (req addItemRequest) validate() error {
	v := &validationError{}
	if req.ProductID == nil {
		v.add("productId", "must not be null")
	}
	if req.OfferID == nil {
		v.add("offerId", "must not be null")
	}
	return v.orNil()
}

type updateItemRequest struct {
	ProductID *int64 `json:"productId"`
	OfferID   *int64 `json:"offerId"`
	Quantity  int    `json:"quantity"`
}

func (req updateItemRequest) validate() error {
	v := &validationError{}
	if req.ProductID == nil {
		v.add("productId", "must not be null")
	}
	if req.OfferID == nil {
		v.add("offerId", "must not be null")
	}
	if req.Quantity <= 0 {
		v.add("quantity", "must be greater than 0")
	}
	return v.orNil()
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		v := &validationError{}
		v.add("body", "malformed JSON")
		return v
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		v := &validationError{}
		v.add(name, fmt.Sprintf("must be a number, got %q", raw))
		return 0, v
	}
	return id, nil
}
