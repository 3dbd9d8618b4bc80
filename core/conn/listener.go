package conn

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/flowgate/flowgate/core/flow"
)

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the logger for accept-loop events.
func WithListenerLogger(log *slog.Logger) ListenerOption {
	return func(l *Listener) {
		l.log = log
	}
}

// WithListenerMetrics attaches connection counters to the listener and
// every adapter it spawns.
func WithListenerMetrics(m *Metrics) ListenerOption {
	return func(l *Listener) {
		l.metrics = m
	}
}

// WithAdapterOptions sets the options applied to each spawned adapter.
func WithAdapterOptions(opts ...Option) ListenerOption {
	return func(l *Listener) {
		l.adapterOpts = opts
	}
}

// Listener accepts flows and runs one Adapter per flow. Connections are
// fully independent: a long-lived connection never delays the next accept.
type Listener struct {
	factory     MachineFactory
	log         *slog.Logger
	metrics     *Metrics
	adapterOpts []Option
}

// NewListener creates a listener that builds one machine per accepted flow
// using factory.
func NewListener(factory MachineFactory, opts ...ListenerOption) *Listener {
	l := &Listener{
		factory: factory,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Serve accepts flows until the acceptor fails or the context ends. An
// accept error is fatal to this listener and returned to the caller; the
// loop does not restart itself. Adapters spawned before the error keep
// running on their own goroutines.
func (l *Listener) Serve(ctx context.Context, acceptor flow.Acceptor) error {
	for {
		fl, ep, err := acceptor.Accept()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("accept: %w", err)
		}
		l.metrics.connAccepted()

		opts := l.adapterOpts
		if l.metrics != nil {
			opts = append(append([]Option(nil), opts...), WithMetrics(l.metrics))
		}
		adapter := NewAdapter(fl, ep, l.factory(ep), opts...)

		go func() {
			if serveErr := adapter.Serve(ctx); serveErr != nil {
				l.log.DebugContext(ctx, "flow close failed", "peer", ep.String(), "error", serveErr)
			}
		}()
	}
}
