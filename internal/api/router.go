package api

import (
	"net/http"

	_ "simex/docs"
	"simex/internal/comm/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	swagger "github.com/swaggo/http-swagger"
)

// NewRouter serves the venue endpoints. rates is the broadcast subscription
// handler mounted at /ws/rates.
func NewRouter(venueHandler *handler.Handler, rates http.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)

	router.Method(http.MethodGet, "/ws/rates", rates)
	router.Post("/api/v1/requests", venueHandler.SubmitRequest)
	router.Post("/api/v1/payments", venueHandler.SubmitPayment)
	return router
}
