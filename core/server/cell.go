package server

import (
	"crypto/tls"
	"sync/atomic"
)

// Cell holds the certificate currently served to TLS clients. It is the
// single shared mutable resource in the process: the renewal loop is its
// only writer, every new handshake is a reader. Swaps are atomic, so a
// reader always observes a complete certificate/key pair, either the
// previous one or the new one, never a mix.
type Cell struct {
	cert atomic.Pointer[tls.Certificate]
}

// NewCell creates an empty cell. Handshakes fail with ErrNoCertificate
// until the first Store.
func NewCell() *Cell {
	return &Cell{}
}

// Store installs cert as the current certificate. The caller must not
// mutate cert afterwards.
func (c *Cell) Store(cert *tls.Certificate) {
	c.cert.Store(cert)
}

// Load returns the current certificate, or nil when none is installed.
func (c *Cell) Load() *tls.Certificate {
	return c.cert.Load()
}

// Installed reports whether any certificate has been stored yet.
func (c *Cell) Installed() bool {
	return c.cert.Load() != nil
}

// GetCertificate plugs the cell into tls.Config.GetCertificate.
func (c *Cell) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert := c.cert.Load()
	if cert == nil {
		return nil, ErrNoCertificate
	}
	return cert, nil
}
