package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
)

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*cart.Cart, error)
	AddItem(ctx context.Context, userID, productID, offerID int64) error
	UpdateItemQuantity(ctx context.Context, userID, productID, offerID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, productID, offerID int64) error
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID int64) (*cart.Cart, error)
}

type Handler struct {
	carts    CartService
	checkout CheckoutService
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewHandler(carts CartService, checkout CheckoutService, timeout time.Duration, logger zerolog.Logger) *Handler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Handler{carts: carts, checkout: checkout, timeout: timeout, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "shopping-cart"})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.AddItem(ctx, userID, *req.ProductID, *req.OfferID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.UpdateItemQuantity(ctx, userID, *req.ProductID, *req.OfferID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offerID, err := pathID(r, "offerId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.RemoveItem(ctx, userID, productID, offerID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.checkout.Checkout(ctx, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}
