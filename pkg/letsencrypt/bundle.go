package letsencrypt

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"
)

// Bundle is an issued certificate with its private key, held in memory.
// Certificate contains the PEM-encoded leaf, followed by the issuer chain
// when bundling is enabled.
type Bundle struct {
	Domains           []string
	Certificate       []byte
	PrivateKey        []byte
	IssuerCertificate []byte
	NotAfter          time.Time
}

// newBundle validates the ACME response payloads and derives the leaf
// expiry. A malformed payload is an issuer error; nothing partial is ever
// returned.
func newBundle(domains []string, certPEM, keyPEM, issuerPEM []byte) (*Bundle, error) {
	if len(certPEM) == 0 {
		return nil, ErrEmptyCertificate
	}
	if len(keyPEM) == 0 {
		return nil, ErrEmptyPrivateKey
	}

	notAfter, err := leafNotAfter(certPEM)
	if err != nil {
		return nil, fmt.Errorf("parse issued certificate: %w", err)
	}

	return &Bundle{
		Domains:           cloneStrings(domains),
		Certificate:       certPEM,
		PrivateKey:        keyPEM,
		IssuerCertificate: issuerPEM,
		NotAfter:          notAfter,
	}, nil
}

// leafNotAfter extracts the expiry of the first certificate in a PEM chain.
func leafNotAfter(certPEM []byte) (time.Time, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return time.Time{}, errors.New("no CERTIFICATE block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, err
	}
	return cert.NotAfter, nil
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
