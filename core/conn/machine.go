package conn

import (
	"net"

	"github.com/flowgate/flowgate/core/flow"
)

// Op is the next operation a Machine requests from the adapter.
type Op int

const (
	// OpYield parks the direction until its resume callback is invoked.
	OpYield Op = iota
	// OpRead asks the read direction to deliver more input.
	OpRead
	// OpWrite asks the write direction to send the machine's buffers.
	OpWrite
	// OpClose completes the direction and closes the flow.
	OpClose
)

// String returns the operation name for logging.
func (op Op) String() string {
	switch op {
	case OpYield:
		return "yield"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpClose:
		return "close"
	default:
		return "unknown"
	}
}

// Machine is a pull-based protocol state machine, typically an HTTP/1.x or
// HTTP/2 implementation. The adapter polls it for operations and reports
// progress back; the machine owns all protocol framing and invokes the
// application's request and error handlers itself.
//
// A Machine is driven by exactly one adapter. NextRead/ConsumeRead are
// called only from the adapter's read direction and NextWrite/ConsumeWrite
// only from its write direction; the machine must tolerate those two
// call sites running concurrently.
type Machine interface {
	// NextRead returns OpRead, OpYield, or OpClose.
	NextRead() Op

	// NextWrite returns the buffers to send when the operation is OpWrite;
	// otherwise the buffers are ignored. Allowed operations are OpWrite,
	// OpYield, and OpClose.
	NextWrite() (net.Buffers, Op)

	// ConsumeRead offers the machine a contiguous view of staged input and
	// returns how many bytes it consumed, which may be fewer than offered.
	// A zero-length view signals end of input: no more bytes will ever
	// arrive. The view is only valid for the duration of the call.
	ConsumeRead(view []byte) int

	// ConsumeWrite reports how many bytes of the last OpWrite actually
	// reached the flow. On a short count the machine must re-offer the
	// unsent remainder from its next OpWrite; the adapter never retries
	// within one pass.
	ConsumeWrite(n int64)

	// OnError reports a connection-fatal flow error so in-flight protocol
	// state can emit a best-effort error response. After OnError returns
	// the reporting direction is finished regardless of outcome.
	OnError(err error)

	// OnReadResume and OnWriteResume register the callbacks the machine
	// invokes to wake a direction it previously parked with OpYield. The
	// adapter registers both before driving the machine; callbacks are
	// safe to invoke at any time, including before the direction parks.
	OnReadResume(resume func())
	OnWriteResume(resume func())
}

// MachineFactory builds one Machine per accepted flow. The endpoint
// metadata is passed through to the machine's request and error handlers.
type MachineFactory func(ep flow.Endpoint) Machine
