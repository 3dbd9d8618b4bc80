package conn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/flowgate/flowgate/core/flow"
	"github.com/flowgate/flowgate/core/relay"
)

// DefaultReadBufferSize is the scratch size for a single flow receive.
const DefaultReadBufferSize = 4096

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger for connection events. Defaults to a discard
// logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// WithRingCapacity sets the staging ring capacity in bytes.
func WithRingCapacity(capacity int) Option {
	return func(a *Adapter) {
		a.ring = relay.New(capacity)
	}
}

// WithReadBufferSize sets the size of a single flow receive.
func WithReadBufferSize(size int) Option {
	return func(a *Adapter) {
		if size > 0 {
			a.scratch = make([]byte, size)
		}
	}
}

// WithMetrics attaches connection counters.
func WithMetrics(m *Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// Adapter pumps bytes between one flow and one protocol state machine. It
// runs the two directions concurrently and guarantees the flow is closed
// exactly once, whichever direction finishes first.
type Adapter struct {
	id      string
	fl      flow.Flow
	ep      flow.Endpoint
	machine Machine
	ring    *relay.Ring
	scratch []byte
	log     *slog.Logger
	metrics *Metrics

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	// eof records that the flow reported end of input. Only the read
	// direction touches it; the zero-length consume waits until staged
	// bytes have drained.
	eof bool

	readResume  chan struct{}
	writeResume chan struct{}
}

// NewAdapter binds a flow to a machine. The adapter takes ownership of the
// flow; ownership ends when Serve returns.
func NewAdapter(fl flow.Flow, ep flow.Endpoint, machine Machine, opts ...Option) *Adapter {
	a := &Adapter{
		id:      uuid.NewString(),
		fl:      fl,
		ep:      ep,
		machine: machine,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		// Buffered so a resume fired before the direction parks is latched.
		readResume:  make(chan struct{}, 1),
		writeResume: make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.ring == nil {
		a.ring = relay.New(relay.DefaultCapacity)
	}
	if a.scratch == nil {
		a.scratch = make([]byte, DefaultReadBufferSize)
	}
	a.log = a.log.With("conn_id", a.id, "peer", ep.String())

	return a
}

// Serve drives the machine until both directions complete, then closes the
// flow. The returned error is the flow's close error, if any; protocol and
// flow errors encountered while serving are reported to the machine's
// OnError hook, not returned.
func (a *Adapter) Serve(ctx context.Context) error {
	a.machine.OnReadResume(func() { signal(a.readResume) })
	a.machine.OnWriteResume(func() { signal(a.writeResume) })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		a.writeLoop(ctx)
	}()
	wg.Wait()

	err := a.Close()
	a.log.DebugContext(ctx, "connection finished")
	return err
}

// Close marks the adapter closed and closes the flow. Idempotent: repeated
// calls return the first close's result and never touch the flow again.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		a.closeErr = a.fl.Close()
	})
	return a.closeErr
}

// readLoop is the read direction: it polls the machine for read operations
// and stages flow bytes through the ring until the direction completes.
func (a *Adapter) readLoop(ctx context.Context) {
	for {
		switch op := a.machine.NextRead(); op {
		case OpRead:
			done, err := a.readPass()
			if err != nil {
				a.metrics.flowError()
				a.machine.OnError(fmt.Errorf("flow receive: %w", err))
				a.Close()
				return
			}
			if done {
				return
			}
		case OpYield:
			if !a.park(ctx, a.readResume) {
				return
			}
		case OpClose:
			a.Close()
			return
		default:
			a.machine.OnError(fmt.Errorf("%w: %s from NextRead", ErrUnexpectedOperation, op))
			a.Close()
			return
		}
	}
}

// readPass performs one pass of the read direction: deliver staged bytes if
// any, otherwise receive once and deliver what arrived. done reports that
// the direction must not run again; err is a connection-fatal flow error.
func (a *Adapter) readPass() (done bool, err error) {
	// Staged bytes take priority over the flow: one consume per pass.
	if view := a.ring.Peek(); len(view) > 0 {
		a.ring.Shift(a.machine.ConsumeRead(view))
		return false, nil
	}

	if a.eof {
		// The ring has drained; exactly one zero-length consume signals
		// end of input.
		a.machine.ConsumeRead(nil)
		a.Close()
		return true, nil
	}

	for {
		if a.closed.Load() {
			return true, nil
		}

		// The ring is empty here, so Free() is the full capacity; the min
		// still guards the invariant that a receive never outgrows it.
		limit := min(a.ring.Free(), len(a.scratch))
		n, err := a.fl.Receive(a.scratch[:limit])
		if n > 0 {
			a.metrics.addBytesReceived(n)
			a.ring.Push(a.scratch[:n])
			a.ring.Shift(a.machine.ConsumeRead(a.ring.Peek()))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return true, err
			}
			// A receive may deliver final bytes together with end of
			// input. Anything still staged drains through later passes
			// before the zero-length consume; the flow is never read
			// again either way.
			a.eof = true
			if a.ring.Len() > 0 {
				return false, nil
			}
			a.machine.ConsumeRead(nil)
			a.Close()
			return true, nil
		}
		if n > 0 {
			return false, nil
		}
		// Zero-byte receive without error: ask the flow again.
	}
}

// writeLoop is the write direction: it sends the buffers the machine
// produces and reports actual written counts back.
func (a *Adapter) writeLoop(ctx context.Context) {
	for {
		bufs, op := a.machine.NextWrite()
		switch op {
		case OpWrite:
			if a.closed.Load() {
				// The other direction already released the flow.
				a.machine.ConsumeWrite(0)
				continue
			}
			n, err := a.fl.Send(bufs)
			a.metrics.addBytesSent(n)
			// Report the actual count even on error; short writes are
			// re-offered by the machine on its next OpWrite.
			a.machine.ConsumeWrite(n)
			if err != nil {
				a.metrics.flowError()
				a.machine.OnError(fmt.Errorf("flow send: %w", err))
				a.Close()
				return
			}
		case OpYield:
			if !a.park(ctx, a.writeResume) {
				return
			}
		case OpClose:
			a.Close()
			return
		default:
			a.machine.OnError(fmt.Errorf("%w: %s from NextWrite", ErrUnexpectedOperation, op))
			a.Close()
			return
		}
	}
}

// park blocks until the direction is resumed. Returns false when the
// context ends first, which finishes the direction.
func (a *Adapter) park(ctx context.Context, resume <-chan struct{}) bool {
	select {
	case <-resume:
		return true
	case <-ctx.Done():
		return false
	}
}

// signal latches a resume without blocking the caller.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
