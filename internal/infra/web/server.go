package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"telegram-card-counter/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the monitoring dashboard. It only reads what the bot stored.
type Server struct {
	statusUC   usecase.StatusUseCase
	countingUC usecase.CountingUseCase
	apiKey     string
	timeout    time.Duration
	now        func() time.Time
	log        *zerolog.Logger
}

func NewServer(statusUC usecase.StatusUseCase, countingUC usecase.CountingUseCase, apiKey string, timeout time.Duration, logger *zerolog.Logger) *Server {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Server{
		statusUC:   statusUC,
		countingUC: countingUC,
		apiKey:     apiKey,
		timeout:    timeout,
		now:        time.Now,
		log:        logger,
	}
}

// Router builds the chi router with every route of the dashboard.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.timeout))

	r.Get("/", s.dashboardHandler)
	r.Head("/", s.dashboardHandler)
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(s.apiKey))
		r.Get("/status", s.statusHandler)
		r.Get("/chats", s.chatsHandler)
	})
	return r
}

// Run serves the dashboard on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	return ListenAndServe(ctx, addr, s.Router(), s.timeout, s.log)
}

// ListenAndServe binds addr first so a port already in use fails immediately,
// then serves h until ctx is cancelled and shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, writeTimeout time.Duration, logger *zerolog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	return Serve(ctx, ln, h, writeTimeout, logger)
}

func Serve(ctx context.Context, ln net.Listener, h http.Handler, writeTimeout time.Duration, logger *zerolog.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		logger.Info().Msg("http server stopped")
		return nil
	}
}
