package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"
)

// AutoTLSOption configures an AutoTLS server.
type AutoTLSOption func(*AutoTLS)

// WithAutoTLSLogger sets the logger for all three components.
func WithAutoTLSLogger(log *slog.Logger) AutoTLSOption {
	return func(s *AutoTLS) {
		s.log = log
	}
}

// AutoTLS assembles the full automatic-HTTPS stack for a plain
// http.Handler application: the challenge/redirect listener on the
// challenge port, the certificate renewal loop, and an HTTPS server whose
// handshakes read the certificate cell. HTTP/2 is enabled when the ALPN
// allow-list includes it.
//
// Applications that drive custom protocol machines use Gate and Lifecycle
// directly instead.
type AutoTLS struct {
	mu          sync.Mutex
	cfg         Config
	cell        *Cell
	lifecycle   *Lifecycle
	redirect    *RedirectServer
	log         *slog.Logger
	httpsServer *http.Server
	running     bool
}

// NewAutoTLS wires an issuer and its challenge handler into a runnable
// server. The challenge handler must be the same one the issuer presents
// tokens to (a letsencrypt.ChallengeStore passed to both).
func NewAutoTLS(cfg Config, issuer Issuer, challenges ChallengeHandler, opts ...AutoTLSOption) (*AutoTLS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &AutoTLS{
		cfg:  cfg,
		cell: NewCell(),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	lifecycle, err := NewLifecycle(issuer, s.cell,
		WithRenewalInterval(cfg.RenewalInterval),
		WithLifecycleLogger(s.log),
	)
	if err != nil {
		return nil, err
	}
	s.lifecycle = lifecycle
	s.redirect = NewRedirectServer(cfg.ChallengeAddr, challenges, WithRedirectLogger(s.log))

	return s, nil
}

// Cell exposes the certificate cell, mainly for readiness checks.
func (s *AutoTLS) Cell() *Cell {
	return s.cell
}

// Run starts the redirect listener, the renewal loop, and the HTTPS server
// and blocks until the context ends or one of them fails. Clients
// connecting before the first certificate is installed get a handshake
// failure; the redirect listener is up from the start so the first ACME
// challenge can be answered.
func (s *AutoTLS) Run(ctx context.Context, handler http.Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.running = true

	tlsConfig := DefaultTLSConfig()
	tlsConfig.GetCertificate = s.cell.GetCertificate
	tlsConfig.NextProtos = s.cfg.ALPNProtocols

	s.httpsServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		TLSConfig:    tlsConfig,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	if s.cfg.alpnEnabled(ProtoH2) {
		if err := http2.ConfigureServer(s.httpsServer, &http2.Server{}); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("configure http/2: %w", err)
		}
	}
	s.mu.Unlock()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.redirect.Run(groupCtx)
	})

	group.Go(func() error {
		return s.lifecycle.Run(groupCtx)
	})

	group.Go(func() error {
		s.log.InfoContext(groupCtx, "starting HTTPS server", "addr", s.cfg.Addr)
		if err := s.httpsServer.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTPS server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpsServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("HTTPS server shutdown error", "error", err)
		}
		return nil
	})

	err := group.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
