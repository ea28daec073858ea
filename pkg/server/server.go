// Package server wires the configured dispatcher, the liveness endpoint and
// the HTTP middleware into one listening process.
package server

import (
	"context"
	"net/http"
	"time"

	log "github.com/jensneuse/abstractlogger"
	"github.com/pkg/errors"

	"github.com/microshop/graphql-gateway/pkg/config"
	"github.com/microshop/graphql-gateway/pkg/gateway"
	"github.com/microshop/graphql-gateway/pkg/stitch"
)

const shutdownDrain = 5 * time.Second

type Server struct {
	log        log.Logger
	cfg        config.Config
	handler    http.Handler
	httpServer *http.Server
}

// New builds the full HTTP surface for the given configuration. The
// dispatcher behind /graphql is chosen once here; both strategies share the
// backend client and the normalization rules.
func New(cfg config.Config, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.NoopLogger
	}

	client := gateway.NewClient(nil, cfg.UpstreamTimeout, logger)

	var dispatcher http.Handler
	switch cfg.Mode {
	case config.ModeProxy:
		dispatcher = gateway.NewProxyHandler(client, cfg.AuthServiceURL, cfg.ProductsServiceURL, logger)
	case config.ModeStitch:
		resolver := stitch.NewResolver(client, cfg.AuthServiceURL, cfg.ProductsServiceURL, logger)
		handler, err := stitch.NewHandler(resolver, logger)
		if err != nil {
			return nil, errors.Wrap(err, "build stitched handler")
		}
		dispatcher = handler
	default:
		return nil, errors.Errorf("unknown gateway mode %q", cfg.Mode)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", dispatcher)
	mux.Handle("/health", NewHealthHandler(client, cfg.AuthServiceURL, cfg.ProductsServiceURL, logger))

	handler := CORS(RequestLogging(logger)(mux))

	return &Server{
		log:     logger,
		cfg:     cfg,
		handler: handler,
		httpServer: &http.Server{
			Addr:    cfg.Addr(),
			Handler: handler,
		},
	}, nil
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to shutdownDrain.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gateway listening",
			log.String("addr", s.cfg.Addr()),
			log.String("mode", string(s.cfg.Mode)),
			log.String("auth_service", s.cfg.AuthServiceURL),
			log.String("products_service", s.cfg.ProductsServiceURL),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
	defer cancel()

	s.log.Info("gateway shutting down")
	if err := s.httpServer.Shutdown(drainCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
