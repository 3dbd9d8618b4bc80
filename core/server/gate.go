package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/flowgate/flowgate/core/conn"
	"github.com/flowgate/flowgate/core/flow"
)

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger for handshake and connection events.
func WithGateLogger(log *slog.Logger) GateOption {
	return func(g *Gate) {
		g.log = log
	}
}

// WithGateTLSConfig sets the base TLS configuration. GetCertificate and
// NextProtos are always overridden by the gate itself.
func WithGateTLSConfig(cfg *tls.Config) GateOption {
	return func(g *Gate) {
		g.base = cfg
	}
}

// WithHandshakeTimeout bounds a single TLS handshake.
func WithHandshakeTimeout(timeout time.Duration) GateOption {
	return func(g *Gate) {
		g.handshakeTimeout = timeout
	}
}

// WithGateMetrics attaches connection counters to spawned adapters.
func WithGateMetrics(m *conn.Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithGateAdapterOptions sets extra options for every spawned adapter,
// such as ring capacity or read buffer size.
func WithGateAdapterOptions(opts ...conn.Option) GateOption {
	return func(g *Gate) {
		g.adapterOpts = opts
	}
}

// Gate is the TLS-terminating listener loop. It accepts TCP connections,
// performs the handshake against the certificate currently in the Cell,
// and hands each connection to the adapter for its ALPN-negotiated
// protocol. Connections are served on their own goroutines; a slow
// handshake never blocks the next accept.
type Gate struct {
	cell             *Cell
	dispatcher       *Dispatcher
	base             *tls.Config
	log              *slog.Logger
	metrics          *conn.Metrics
	handshakeTimeout time.Duration
	adapterOpts      []conn.Option
}

// NewGate creates a gate serving certificates from cell and routing
// connections through dispatcher.
func NewGate(cell *Cell, dispatcher *Dispatcher, opts ...GateOption) *Gate {
	g := &Gate{
		cell:             cell,
		dispatcher:       dispatcher,
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		handshakeTimeout: DefaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Serve accepts connections from ln until an accept error or context
// cancellation. The caller owns ln; closing it is the way to stop Serve.
func (g *Gate) Serve(ctx context.Context, ln net.Listener) error {
	cfg := g.tlsConfig()
	for {
		netConn, err := ln.Accept()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("accept: %w", err)
		}
		go g.handle(ctx, tls.Server(netConn, cfg))
	}
}

// tlsConfig builds the handshake configuration: the base config (hardened
// defaults when none was set) with the cell and the dispatcher wired in.
func (g *Gate) tlsConfig() *tls.Config {
	var cfg *tls.Config
	if g.base != nil {
		cfg = g.base.Clone()
	} else {
		cfg = DefaultTLSConfig()
	}
	cfg.GetCertificate = g.cell.GetCertificate
	cfg.NextProtos = g.dispatcher.Protos()
	return cfg
}

func (g *Gate) handle(ctx context.Context, tlsConn *tls.Conn) {
	ep := flow.EndpointFromAddr(tlsConn.RemoteAddr())

	hsCtx, cancel := context.WithTimeout(ctx, g.handshakeTimeout)
	err := tlsConn.HandshakeContext(hsCtx)
	cancel()
	if err != nil {
		g.log.DebugContext(ctx, "TLS handshake failed", "peer", ep.String(), "error", err)
		tlsConn.Close()
		return
	}

	proto := tlsConn.ConnectionState().NegotiatedProtocol
	machine := g.dispatcher.Select(proto)(ep)

	opts := append([]conn.Option{conn.WithLogger(g.log)}, g.adapterOpts...)
	if g.metrics != nil {
		opts = append(opts, conn.WithMetrics(g.metrics))
	}

	adapter := conn.NewAdapter(flow.NewNetFlow(tlsConn), ep, machine, opts...)
	if serveErr := adapter.Serve(ctx); serveErr != nil {
		g.log.DebugContext(ctx, "flow close failed", "peer", ep.String(), "error", serveErr)
	}
}
