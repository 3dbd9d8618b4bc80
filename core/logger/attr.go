package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety, so call
// sites like log.Info("msg", logger.Error(err)) need no nil checks.

// Error creates an attribute for a single error under the key "error".
// Returns an empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the subsystem a record came from (gate, lifecycle,
// redirect, adapter).
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Peer records the remote endpoint of a connection as host:port.
func Peer(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("peer", addr)
}

// ConnID records the adapter's connection identifier.
func ConnID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("conn_id", id)
}

// Proto records the ALPN-negotiated protocol; empty means no token.
func Proto(proto string) slog.Attr {
	return slog.String("proto", proto)
}

// Domain records the certificate subject domain.
func Domain(domain string) slog.Attr {
	if domain == "" {
		return slog.Attr{}
	}
	return slog.String("domain", domain)
}

// NotAfter records a certificate expiry deadline.
func NotAfter(t time.Time) slog.Attr {
	return slog.Time("not_after", t)
}

// BytesIn creates an attribute for bytes received from the peer.
func BytesIn(n int64) slog.Attr {
	return slog.Int64("bytes_in", n)
}

// BytesOut creates an attribute for bytes sent to the peer.
func BytesOut(n int64) slog.Attr {
	return slog.Int64("bytes_out", n)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}
