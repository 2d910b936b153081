package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 30 * time.Second

type Service struct {
	config *config.Config
	logger *zerolog.Logger
	drain  []func()
}

// NewService creates a new instance of the service. drain functions run after the server stops
// accepting requests, e.g. to wait for callbacks still being processed.
func NewService(cfg *config.Config, drain ...func()) *Service {
	l := log.GetLogger()
	return &Service{config: cfg, logger: &l, drain: drain}
}

// Run starts the server and listens for incoming requests
func (s *Service) Run(ctx context.Context, router chi.Router) {
	server := &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg(errors.ErrorFailedToRunTheServer)
		}
	}()

	s.logger.Info().Msg(fmt.Sprintf("Server is listening on %s", s.config.Server.Addr()))
	done := make(chan struct{})
	go s.shutdown(ctx, server, done)
	<-done
}

// shutdown gracefully shuts down the server without interrupting any active connections.
func (s *Service) shutdown(ctx context.Context, server *http.Server, done chan struct{}) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Server is shutting down due to context cancellation...")
	case <-quit:
		s.logger.Info().Msg("Server is shutting down...")
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		s.logger.Error().Err(err).Msg(errors.ErrorFailedToShutdownTheServer)
	}

	for _, drain := range s.drain {
		drain()
	}

	s.logger.Info().Msg("Server stopped")
	close(done)
}
