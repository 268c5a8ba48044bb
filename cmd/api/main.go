package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/voyago/travel-bookings/internal/http/handlers"
	imw "github.com/voyago/travel-bookings/internal/http/middleware"
	"github.com/voyago/travel-bookings/internal/service"
	"github.com/voyago/travel-bookings/internal/store"
	"github.com/voyago/travel-bookings/internal/store/memory"
	"github.com/voyago/travel-bookings/internal/store/postgres"
	"github.com/voyago/travel-bookings/pkg/cache"
	"github.com/voyago/travel-bookings/pkg/config"
	"github.com/voyago/travel-bookings/pkg/database"
	"github.com/voyago/travel-bookings/pkg/events"
	"github.com/voyago/travel-bookings/pkg/logger"
	mw "github.com/voyago/travel-bookings/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	// Storage backend
	var (
		trips    store.TripStore
		bookings store.BookingStore
		idem     store.IdempotencyStore
	)
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		trips = memory.NewTripStore()
		bookings = memory.NewBookingStore()
		idem = memory.NewIdempotencyStore()
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		trips = postgres.NewTripRepo(pool)
		bookings = postgres.NewBookingRepo(pool)
		idem = postgres.NewIdempotencyRepo(pool)
	default:
		logger.Error("Unknown store driver", "driver", cfg.Store.Driver)
		os.Exit(1)
	}

	// Event bus
	var bus events.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsBus.Close()
		bus = natsBus
	}

	// Services
	searchService := service.NewSearchService(trips)
	tripService := service.NewTripService(trips, bus)
	bookingService := service.NewBookingService(trips, bookings, idem, bus, cfg.Bookings.RestockOnCancel)
	reportService := service.NewReportService(bookings)

	// Handlers
	tripHandler := handlers.NewTripHandler(searchService, tripService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	adminHandler := handlers.NewAdminHandler(bookingService, reportService)

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	if cfg.Redis.URL != "" {
		redisStore, err := cache.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		r.Use(mw.IdempotencyMiddleware(redisStore))
	}

	requireIdentity := imw.RequireIdentity(cfg.Auth.JWTSecret)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", tripHandler.Search)
		r.Get("/{id}", tripHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireIdentity)
			r.Post("/", tripHandler.Create)
			r.Delete("/{id}", tripHandler.Delete)
		})
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(requireIdentity)
		r.Post("/", bookingHandler.Create)
		r.Get("/", bookingHandler.List)
		r.Delete("/{id}", bookingHandler.Cancel)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireIdentity)
		r.Get("/bookings", adminHandler.ListBookings)
		r.Get("/stats", adminHandler.Stats)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting travel bookings service", "port", cfg.Server.Port, "store", cfg.Store.Driver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
