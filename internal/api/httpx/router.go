package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает маршруты API заказов.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/orders", handler.CreateOrder)
	r.Get("/orders", handler.ListOrders)
	r.Get("/orders/{id}", handler.GetOrderByID)
	r.Patch("/orders/{id}/status", handler.UpdateOrderStatus)
	r.Get("/orders/{id}/history", handler.GetOrderHistory)
	return r
}
