package server

import "time"

const (
	// DefaultRenewalInterval is how often a new certificate is requested.
	// It is a fixed policy constant, not derived from the issued
	// certificate's expiry; 80 days stays safely inside Let's Encrypt's
	// 90-day validity window.
	DefaultRenewalInterval = 80 * 24 * time.Hour

	// DefaultChallengeAddr is where the HTTP-01 challenge/redirect
	// listener binds.
	DefaultChallengeAddr = ":80"

	// DefaultHandshakeTimeout bounds one TLS handshake on the gate.
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultReadTimeout is the default timeout for reading a request.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the default timeout for writing a response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the default timeout for idle connections.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)
