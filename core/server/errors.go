package server

import "errors"

var (
	// Certificate errors
	ErrNoCertificate = errors.New("no certificate installed")
	ErrNoIssuer      = errors.New("certificate issuer is required")
	ErrNoCell        = errors.New("certificate cell is required")

	// ALPN errors
	ErrUnknownProtocol = errors.New("unrecognized ALPN protocol")

	// Configuration errors
	ErrMissingAddress  = errors.New("server address is required")
	ErrMissingHostname = errors.New("hostname is required")
	ErrMissingEmail    = errors.New("ACME account email is required")

	// Server lifecycle errors
	ErrServerAlreadyRunning = errors.New("server is already running")
)
