package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/caliginous/jvs-checkout/internal/config"
	"github.com/caliginous/jvs-checkout/internal/handlers"
	"github.com/caliginous/jvs-checkout/internal/middleware"
	"github.com/caliginous/jvs-checkout/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	logger := logrus.New()
	if cfg.Server.Env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Commerce session cookie store shared with the legacy backend
	sessionStore := services.NewCookieSessionStore(cfg.Session.Secret)

	// Initialize services
	gateway := services.NewGatewayClient(cfg.Gateway, logger, nil)
	catalogService := services.NewCatalogService(gateway, logger)
	stripeService := services.NewStripeService(services.StripeConfig{
		SecretKey: cfg.Stripe.SecretKey,
		PublicKey: cfg.Stripe.PublicKey,
		BaseURL:   cfg.Stripe.BaseURL,
	}, logger)
	orderClient := services.NewOrderClient(services.OrderBackendConfig{
		CheckoutURL: cfg.OrderBackend.CheckoutURL,
	}, logger)
	checkoutService := services.NewCheckoutService(stripeService, orderClient, stripeService, cfg.OrderBackend.EventsURL, logger)

	// Initialize handlers
	ticketsHandler := handlers.NewTicketsHandler(catalogService, sessionStore)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.LoggingMiddleware(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/events/{id}/tickets", ticketsHandler.EventTickets)
		r.Post("/checkout", checkoutHandler.Submit)
		r.Post("/checkout/confirm", checkoutHandler.ConfirmSCA)
	})

	// The checkout API is called cross-origin from the marketing site
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.WithField("addr", addr).Info("server listening")
	if err := http.ListenAndServe(addr, corsHandler.Handler(r)); err != nil {
		logger.Fatal("Server failed: ", err)
	}
}
