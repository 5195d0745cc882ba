package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(inv *InventoryHandler, carts *CartHandler, reports *ReportHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(Identity)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/sweets", func(r chi.Router) {
		r.Get("/", inv.List)
		r.Get("/{itemId}", inv.Get)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/", inv.Upsert)
			r.Put("/{itemId}", inv.Update)
			r.Delete("/{itemId}", inv.Delete)
			r.Post("/{itemId}/restock", inv.Restock)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Post("/{itemId}/purchase", carts.Purchase)
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(RequireUser)
		r.Get("/", carts.Get)
		r.Post("/items", carts.SetLine)
		r.Put("/items/{itemId}", carts.AdjustLine)
		r.Delete("/items/{itemId}", carts.RemoveLine)
		r.Post("/confirm", carts.Confirm)
		r.Post("/buy-now", carts.BuyNow)
	})

	r.Route("/api/reports", func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Get("/sales", reports.Sales)
	})

	return r
}
