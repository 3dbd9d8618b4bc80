// Package server terminates TLS for flowgate and keeps the certificate it
// serves fresh without restarts.
//
// The moving parts:
//
//   - Cell: the one piece of process-wide shared state, an atomically
//     swappable holder of the current certificate. New TLS handshakes read
//     it; the renewal loop is its only writer.
//   - Lifecycle: the renewal loop. It obtains a certificate from an ACME
//     issuer, installs it into the Cell, sleeps for a fixed interval
//     (80 days by default, deliberately inside Let's Encrypt's 90-day
//     validity window), and repeats. A failed acquisition keeps the
//     previous certificate in place and waits out the full interval, so
//     the issuer is never hammered.
//   - RedirectServer: the fixed-port HTTP listener that answers ACME
//     HTTP-01 challenges and 301-redirects everything else to HTTPS,
//     disambiguating by request path.
//   - Dispatcher and Gate: after each TLS handshake the Gate reads the
//     ALPN-negotiated protocol and the Dispatcher routes the connection to
//     the protocol-specific machine factory, defaulting to HTTP/1.1 when
//     nothing was negotiated.
//   - AutoTLS: the assembled variant for plain http.Handler applications,
//     running the redirect listener, the renewal loop, and an HTTPS server
//     (HTTP/2 enabled when the ALPN allow-list includes it) as one unit.
//
// Minimal gate setup:
//
//	cell := server.NewCell()
//	dispatcher := server.NewDispatcher(http1Factory)
//	dispatcher.Register(server.ProtoH2, h2Factory)
//
//	gate := server.NewGate(cell, dispatcher)
//	go lifecycle.Run(ctx)
//	gate.Serve(ctx, listener)
package server
