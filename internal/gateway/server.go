package gateway

import (
	"context"
	"net/http"
	"time"

	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/core"
	"meshworks/meshgate/internal/payment"
)

// NewHandler assembles the gateway routes. Only the broadcast route is
// payment-gated; health checks and everything else pass straight through
// to the backend.
func NewHandler(cfg *config.Configuration, f payment.Facilitator) (http.Handler, error) {
	relay, err := NewRelay(cfg.Gateway.Backend)
	if err != nil {
		return nil, err
	}

	gate := NewGate(cfg, f)

	mux := http.NewServeMux()
	mux.Handle("GET /health", relay)
	mux.Handle("POST /broadcast", gate.Middleware(relay))
	mux.Handle("/", relay)

	return logRequests(mux), nil
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		core.GetLogger().Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"took", time.Since(start))
	})
}

// Run serves the gateway until ctx is cancelled, then drains in-flight
// requests before returning.
func Run(ctx context.Context, cfg *config.Configuration) error {
	facilitator := payment.NewFacilitatorClient(cfg.Payment.Facilitator)

	handler, err := NewHandler(cfg, facilitator)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Gateway.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		core.GetLogger().Infow("gateway listening",
			"addr", cfg.Gateway.Listen,
			"backend", cfg.Gateway.Backend,
			"price", cfg.Payment.Price)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		core.GetLogger().Info("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
