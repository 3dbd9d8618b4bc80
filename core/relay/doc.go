// Package relay provides a fixed-capacity byte ring buffer used to stage
// bytes read from a network flow before the protocol state machine consumes
// them. Staging is bounded so a slow consumer applies backpressure to the
// reader instead of growing memory without limit.
//
// A Ring is not safe for concurrent use. The connection adapter enforces a
// single-mutator discipline: only its read direction pushes, peeks, and
// shifts.
//
// Usage:
//
//	ring := relay.New(relay.DefaultCapacity)
//
//	// Reader side: never receive more than the ring can hold.
//	n, _ := fl.Receive(scratch[:min(ring.Free(), len(scratch))])
//	ring.Push(scratch[:n])
//
//	// Consumer side: peek a contiguous view, report what was consumed.
//	view := ring.Peek()
//	consumed := machine.ConsumeRead(view)
//	ring.Shift(consumed)
package relay
