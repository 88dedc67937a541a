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

	"github.com/timey-uz/timey-backend/internal/cache"
	"github.com/timey-uz/timey-backend/internal/http/handlers"
	mw "github.com/timey-uz/timey-backend/internal/http/middleware"
	"github.com/timey-uz/timey-backend/internal/platform/sms"
	"github.com/timey-uz/timey-backend/internal/repo/postgres"
	"github.com/timey-uz/timey-backend/internal/service"
	"github.com/timey-uz/timey-backend/pkg/config"
	"github.com/timey-uz/timey-backend/pkg/database"
	"github.com/timey-uz/timey-backend/pkg/events"
	"github.com/timey-uz/timey-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Booking.TimeZone)
	if err != nil {
		logger.Error("Invalid timezone", "tz", cfg.Booking.TimeZone, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	availCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.AvailabilityTTL)
	smsSender := newSMSSender(cfg.SMS)
	clock := service.NewClock(loc)

	// Repositories
	bookingRepo := postgres.NewBookingRepository(pool)
	masterRepo := postgres.NewMasterRepository(pool)
	otpRepo := postgres.NewOTPRepository(pool)
	guestRepo := postgres.NewGuestRepository(pool)

	// Services
	availabilityService := service.NewAvailabilityService(masterRepo, bookingRepo, availCache, eventBus, clock)
	bookingService := service.NewBookingService(bookingRepo, masterRepo, availCache, eventBus, clock, cfg.Booking)
	masterService := service.NewMasterService(masterRepo, availabilityService)
	otpService := service.NewOTPService(otpRepo, masterRepo, smsSender, eventBus, clock, cfg.OTP, cfg.Auth)
	guestService := service.NewGuestService(guestRepo, cfg.Auth)

	h := handlers.New(bookingService, masterService, availabilityService, otpService, guestService, cfg)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000", "*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.CreateBooking)
			r.Get("/", h.ListClientBookings)
			r.Get("/{id}", h.GetBooking)
			r.Patch("/{id}/confirm", h.ClientConfirm)
			r.With(h.RequireMaster).Patch("/{id}/master-action", h.MasterAction)
			r.With(h.RequireMaster).Patch("/{id}/complete", h.CompleteBooking)
		})

		r.Route("/masters", func(r chi.Router) {
			r.Post("/", h.CreateMaster)
			r.Get("/", h.ListMasters)
			r.Get("/{id}", h.GetMaster)
			r.Get("/{id}/availability/today", h.TodayAvailability)
			r.With(h.RequireMaster).Patch("/{id}/availability", h.UpsertAvailability)
			r.With(h.RequireMaster).Get("/{id}/bookings", h.ListMasterBookings)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/otp/request", h.RequestOTP)
			r.Post("/otp/verify", h.VerifyOTP)
		})

		r.Post("/guest/session", h.StartGuestSession)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port, "timezone", cfg.Booking.TimeZone)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func newSMSSender(cfg config.SMSConfig) sms.Sender {
	switch cfg.Provider {
	case "eskiz":
		return sms.NewEskizSender(cfg.EskizEmail, cfg.EskizSecret, cfg.EskizFrom)
	case "twilio":
		return sms.NewTwilioSender(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
	default:
		return sms.NewDevSender()
	}
}
