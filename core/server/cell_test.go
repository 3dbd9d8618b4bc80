package server_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgate/flowgate/core/server"
)

func selfSignedCert(t *testing.T, host string) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: host},
		DNSNames:     []string{host},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	cert, err := tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	)
	require.NoError(t, err)
	return cert
}

func TestCell(t *testing.T) {
	t.Parallel()

	t.Run("empty cell fails handshake lookups", func(t *testing.T) {
		t.Parallel()

		cell := server.NewCell()
		assert.False(t, cell.Installed())
		assert.Nil(t, cell.Load())

		_, err := cell.GetCertificate(&tls.ClientHelloInfo{ServerName: "example.com"})
		assert.ErrorIs(t, err, server.ErrNoCertificate)
	})

	t.Run("store then load round trips", func(t *testing.T) {
		t.Parallel()

		cell := server.NewCell()
		cert := selfSignedCert(t, "example.com")
		cell.Store(&cert)

		assert.True(t, cell.Installed())

		got, err := cell.GetCertificate(&tls.ClientHelloInfo{})
		require.NoError(t, err)
		assert.Same(t, &cert, got)
	})
}

func TestCellSwapIsNeverTorn(t *testing.T) {
	t.Parallel()

	certA := selfSignedCert(t, "a.example.com")
	certB := selfSignedCert(t, "b.example.com")

	cell := server.NewCell()
	cell.Store(&certA)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// One writer alternating installs, many handshake readers. Every read
	// must observe exactly one of the two complete bundles.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				cell.Store(&certB)
			} else {
				cell.Store(&certA)
			}
		}
	}()

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 2000 {
				got, err := cell.GetCertificate(&tls.ClientHelloInfo{})
				if err != nil {
					t.Errorf("GetCertificate: %v", err)
					return
				}
				if got != &certA && got != &certB {
					t.Error("observed a certificate that was never installed")
					return
				}
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()
}
