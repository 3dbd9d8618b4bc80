package server

import (
	"fmt"
	"time"
)

// Config holds server configuration with environment variable support.
// Load it with core/config and hand it to NewAutoTLS, or pick fields out
// of it when assembling a Gate by hand.
type Config struct {
	// Addr is the HTTPS listen address.
	Addr string `env:"FLOWGATE_ADDR" envDefault:":443"`

	// ChallengeAddr is the plain-HTTP listen address shared by the ACME
	// challenge handler and the HTTPS redirect.
	ChallengeAddr string `env:"FLOWGATE_CHALLENGE_ADDR" envDefault:":80"`

	// Hostname is the domain a certificate is requested for.
	Hostname string `env:"FLOWGATE_HOSTNAME"`

	// Email is the ACME account contact.
	Email string `env:"FLOWGATE_ACME_EMAIL"`

	// Staging selects the Let's Encrypt staging directory.
	Staging bool `env:"FLOWGATE_ACME_STAGING" envDefault:"false"`

	// RenewalInterval is the fixed time between certificate acquisitions.
	RenewalInterval time.Duration `env:"FLOWGATE_RENEWAL_INTERVAL" envDefault:"1920h"`

	// ALPNProtocols is the allow-list offered during the TLS handshake.
	ALPNProtocols []string `env:"FLOWGATE_ALPN_PROTOCOLS" envDefault:"h2,http/1.1" envSeparator:","`

	// Connection buffer sizing.
	ReadBufferSize int `env:"FLOWGATE_READ_BUFFER_SIZE" envDefault:"4096"`
	RingCapacity   int `env:"FLOWGATE_RING_CAPACITY" envDefault:"4096"`

	// Timeouts.
	HandshakeTimeout time.Duration `env:"FLOWGATE_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	ReadTimeout      time.Duration `env:"FLOWGATE_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout     time.Duration `env:"FLOWGATE_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout      time.Duration `env:"FLOWGATE_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout  time.Duration `env:"FLOWGATE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns a Config with the package defaults, no hostname or
// email set.
func DefaultConfig() Config {
	return Config{
		Addr:             ":443",
		ChallengeAddr:    DefaultChallengeAddr,
		RenewalInterval:  DefaultRenewalInterval,
		ALPNProtocols:    []string{ProtoH2, ProtoHTTP11},
		ReadBufferSize:   4096,
		RingCapacity:     4096,
		HandshakeTimeout: DefaultHandshakeTimeout,
		ReadTimeout:      DefaultReadTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		IdleTimeout:      DefaultIdleTimeout,
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
}

// Validate checks the fields the certificate flow depends on.
func (cfg Config) Validate() error {
	if cfg.Addr == "" {
		return ErrMissingAddress
	}
	if cfg.Hostname == "" {
		return ErrMissingHostname
	}
	if cfg.Email == "" {
		return ErrMissingEmail
	}
	for _, proto := range cfg.ALPNProtocols {
		switch proto {
		case ProtoHTTP10, ProtoHTTP11, ProtoH2:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownProtocol, proto)
		}
	}
	return nil
}

// alpnEnabled reports whether the allow-list includes proto.
func (cfg Config) alpnEnabled(proto string) bool {
	for _, p := range cfg.ALPNProtocols {
		if p == proto {
			return true
		}
	}
	return false
}
