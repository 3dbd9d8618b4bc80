package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/flowgate/flowgate/pkg/letsencrypt"
)

// Issuer obtains one certificate bundle per call. Implemented by
// letsencrypt.Issuer; substituted in tests.
type Issuer interface {
	Obtain(ctx context.Context) (*letsencrypt.Bundle, error)
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithRenewalInterval overrides the fixed time between acquisitions.
func WithRenewalInterval(interval time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if interval > 0 {
			l.interval = interval
		}
	}
}

// WithLifecycleLogger sets the logger for renewal events.
func WithLifecycleLogger(log *slog.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		l.log = log
	}
}

// Lifecycle drives certificate acquisition and rotation: obtain a
// certificate, install it into the cell, sleep for the renewal interval,
// repeat for the life of the process.
//
// Renewal is time-triggered, not expiry-triggered. A failed acquisition is
// logged and skipped; the previously installed certificate keeps serving
// and the next attempt waits for the full interval, so a broken issuer is
// never retried in a tight loop.
type Lifecycle struct {
	issuer   Issuer
	cell     *Cell
	interval time.Duration
	log      *slog.Logger

	// timer is replaced in tests to simulate the renewal schedule.
	timer func(d time.Duration) <-chan time.Time
}

// NewLifecycle creates a renewal loop installing certificates from issuer
// into cell.
func NewLifecycle(issuer Issuer, cell *Cell, opts ...LifecycleOption) (*Lifecycle, error) {
	if issuer == nil {
		return nil, ErrNoIssuer
	}
	if cell == nil {
		return nil, ErrNoCell
	}

	l := &Lifecycle{
		issuer:   issuer,
		cell:     cell,
		interval: DefaultRenewalInterval,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		timer:    func(d time.Duration) <-chan time.Time { return time.After(d) },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Run loops until the context ends: acquire, install, wait one interval.
// It always returns the context's error.
func (l *Lifecycle) Run(ctx context.Context) error {
	for {
		if err := l.renewOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.ErrorContext(ctx, "certificate renewal failed; keeping previous certificate",
				"error", err, "next_attempt_in", l.interval)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.timer(l.interval):
		}
	}
}

// renewOnce performs one acquisition cycle. The cell is only touched on
// full success: a failed exchange or an unparsable bundle installs nothing.
func (l *Lifecycle) renewOnce(ctx context.Context) error {
	bundle, err := l.issuer.Obtain(ctx)
	if err != nil {
		return fmt.Errorf("obtain certificate: %w", err)
	}

	cert, err := tls.X509KeyPair(bundle.Certificate, bundle.PrivateKey)
	if err != nil {
		return fmt.Errorf("parse certificate bundle: %w", err)
	}

	l.cell.Store(&cert)
	l.log.InfoContext(ctx, "certificate installed",
		"domains", bundle.Domains, "not_after", bundle.NotAfter)
	return nil
}
