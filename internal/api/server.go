package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gramsetu/internal/cache"
	"gramsetu/internal/database"
	"gramsetu/internal/location"
	"gramsetu/internal/notify"
	"gramsetu/internal/payout"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server представляет HTTP-сервер.
type Server struct {
	port       string
	router     *chi.Mux
	httpServer *http.Server
	storage    database.Storage
	cache      cache.Cache
	dispatcher notify.Dispatcher
	locations  *location.Service
	processor  *payout.Processor
}

// NewServer создает и настраивает новый экземпляр сервера.
func NewServer(port string, storage database.Storage, cache cache.Cache, dispatcher notify.Dispatcher, locations *location.Service, processor *payout.Processor) *Server {
	server := &Server{
		port:       port,
		storage:    storage,
		cache:      cache,
		dispatcher: dispatcher,
		locations:  locations,
		processor:  processor,
	}
	server.router = server.setupRouter()
	return server
}

// Run запускает HTTP-сервер.
func (s *Server) Run() error {
	address := fmt.Sprintf(":%s", s.port)
	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           otelhttp.NewHandler(s.router, "http-server"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	fmt.Printf("🚀 HTTP-сервер запущен на http://localhost%s\n", address)
	return s.httpServer.ListenAndServe()
}

// Shutdown останавливает сервер, дожидаясь активных запросов.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// setupRouter настраивает маршрутизацию.
func (s *Server) setupRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Метрики Prometheus без проверки личности
	router.Handle("/metrics", promhttp.Handler())

	orderHandler := NewOrderHandler(s.storage, s.cache, s.dispatcher)
	deliveryHandler := NewDeliveryHandler(s.storage, s.cache, s.dispatcher)
	paymentHandler := NewPaymentHandler(s.storage, s.dispatcher)
	payoutHandler := NewPayoutHandler(s.processor)
	geoHandler := NewGeoHandler(s.storage, s.locations)

	router.Route("/api", func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Create)
			r.Get("/", orderHandler.List)
			r.Get("/{orderID}", orderHandler.GetByID)
			r.Patch("/{orderID}/accept", orderHandler.Accept)
			r.Patch("/{orderID}/reject", orderHandler.Reject)
			r.Patch("/{orderID}/cancel", orderHandler.Cancel)
			r.Post("/{orderID}/assign", orderHandler.Assign)
		})

		r.Patch("/deliveries/{orderID}", deliveryHandler.Update)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", paymentHandler.Create)
			r.Patch("/{paymentID}", paymentHandler.Finalize)
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/process", payoutHandler.Process)
			r.Post("/settle", payoutHandler.Settle)
		})

		r.Get("/warehouses/nearby", geoHandler.NearbyWarehouses)
		r.Post("/riders/location", geoHandler.UpdateRiderLocation)
	})

	return router
}
