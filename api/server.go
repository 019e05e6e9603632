package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schoolsharks/quickk-webn-sub000/config"
)

// Server wraps the HTTP server for the lottery API
type Server struct {
	httpServer *http.Server
}

// NewServer builds the router and returns a configured server
func NewServer(cfg *config.Config, handler *Handler) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/draws", func(r chi.Router) {
			r.Get("/", handler.ListDraws)
			r.Get("/{drawID}", handler.GetDraw)
			r.Get("/{drawID}/winner", handler.GetWinner)
			r.Post("/{drawID}/tickets", handler.BuyTickets)
		})

		r.Get("/users/me", handler.GetMyBalance)

		r.Route("/admin/draws", func(r chi.Router) {
			r.Post("/", handler.CreateDraw)
			r.Post("/{drawID}/live", handler.MarkDrawLive)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.GetServerAddr(),
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start begins serving requests. It blocks until the server is shut down.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
