package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryo_booking_bot/internal/booking"
	"cryo_booking_bot/internal/config"
	"cryo_booking_bot/internal/middleware"
	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/pkg/logger"
)

// Version попадает в ответ health check
const Version = "1.0.0"

// UpdateHandler обрабатывает обновления Telegram
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *tgmodels.Update)
}

// Deps это зависимости HTTP сервера.
// Updates равен nil, если Telegram отключен.
type Deps struct {
	Booking *booking.Service
	Hub     *notify.Hub
	Updates UpdateHandler
	Health  map[string]Pinger
}

// Server представляет HTTP сервер с middleware
type Server struct {
	httpServer    *http.Server
	cfg           *config.Config
	log           *logger.Logger
	hub           *notify.Hub
	updates       UpdateHandler
	api           *API
	rateLimiter   *middleware.RateLimiter
	healthChecker *HealthChecker
}

// New создает новый HTTP сервер
func New(cfg *config.Config, log *logger.Logger, deps Deps) *Server {
	if log == nil {
		log = logger.Discard()
	}
	hub := deps.Hub
	if hub == nil {
		hub = notify.NewHub()
	}

	s := &Server{
		cfg:           cfg,
		log:           log,
		hub:           hub,
		updates:       deps.Updates,
		api:           NewAPI(deps.Booking, log),
		rateLimiter:   middleware.NewRateLimiter(cfg.Server.RateLimitPerMin, time.Minute, log),
		healthChecker: NewHealthChecker(deps.Health, Version),
	}

	s.httpServer = &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        s.Handler(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

// Handler возвращает маршрутизатор со всеми middleware
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(securityHeadersMiddleware)
	r.Use(middleware.Prometheus)

	r.Get("/health", s.healthChecker.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	if s.updates != nil {
		r.With(s.webhookAuthMiddleware).Post("/webhook", s.handleWebhook)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.rateLimiter))
		r.Use(s.apiAuthMiddleware)
		r.Get("/events", s.handleEvents)
		s.api.Routes(r)
	})

	return r
}

// handleWebhook обрабатывает Telegram webhook
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var update tgmodels.Update
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.log.Warn("Failed to decode Telegram update", logger.Error(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	s.updates.HandleUpdate(ctx, &update)

	s.log.Debug("Webhook processed",
		logger.Int64("update_id", update.ID),
		logger.Duration("processing_time", time.Since(start)),
	)
	w.WriteHeader(http.StatusOK)
}

// Start запускает сервер и блокируется до отмены ctx
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HTTP server", logger.String("addr", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown корректно завершает работу сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return err
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Close освобождает ресурсы сервера, который не запускался
func (s *Server) Close() {
	s.rateLimiter.Close()
}
