package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
)

// ChallengeHandler answers ACME HTTP-01 challenge requests and reports
// whether the request was one. Implemented by letsencrypt.ChallengeStore.
type ChallengeHandler interface {
	HandleChallenge(w http.ResponseWriter, r *http.Request) bool
}

// RedirectOption configures a RedirectServer.
type RedirectOption func(*RedirectServer)

// WithRedirectLogger sets the logger for the redirect listener.
func WithRedirectLogger(log *slog.Logger) RedirectOption {
	return func(s *RedirectServer) {
		s.log = log
	}
}

// RedirectServer is the plain-HTTP listener on the challenge port. It
// shares that single port between two jobs, disambiguated by path: ACME
// challenge requests are answered from the challenge handler, /healthz
// reports liveness, and everything else is redirected to HTTPS.
type RedirectServer struct {
	addr       string
	challenges ChallengeHandler
	log        *slog.Logger
	server     *http.Server
}

// NewRedirectServer creates a redirect listener on addr (defaults to :80).
// challenges may be nil when no ACME flow shares the port.
func NewRedirectServer(addr string, challenges ChallengeHandler, opts ...RedirectOption) *RedirectServer {
	if addr == "" {
		addr = DefaultChallengeAddr
	}
	s := &RedirectServer{
		addr:       addr,
		challenges: challenges,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the challenge/redirect handler, exposed so it can be
// mounted on an existing server.
func (s *RedirectServer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.challenges != nil && s.challenges.HandleChallenge(w, r) {
			return
		}

		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "ok")
			return
		}

		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		http.Redirect(w, r, "https://"+host+r.URL.RequestURI(), http.StatusMovedPermanently)
	})
}

// Run serves until the context ends, then shuts down gracefully.
func (s *RedirectServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run with a caller-provided listener, mainly for tests that need
// an ephemeral port.
func (s *RedirectServer) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoContext(ctx, "starting challenge/redirect listener", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Error("redirect listener shutdown error", "error", err)
		}
		return ctx.Err()
	}
}
