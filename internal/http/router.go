package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/events"
)

type RouterConfig struct {
	APIPrefix        string
	CORSAllowOrigins []string
}

func NewRouter(h *Handler, cfg RouterConfig, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", events.HeaderCorrelationID, events.HeaderCausationID},
		ExposedHeaders: []string{events.HeaderCorrelationID},
	}).Handler)
	r.Use(CorrelationID)

	r.Get("/health", h.Health)

	r.Route(cfg.APIPrefix+"/users/{userId}", func(r chi.Router) {
		r.Get("/cart", h.GetCart)
		r.Post("/cart/items", h.AddItem)
		r.Put("/cart/items", h.UpdateItemQuantity)
		r.Delete("/cart/items/{productId}/{offerId}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})

	return r
}
