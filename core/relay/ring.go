package relay

// DefaultCapacity is the staging capacity used when none is configured.
const DefaultCapacity = 4096

// Ring is a bounded byte ring buffer. Bytes enter through Push and leave
// through Shift after being observed via Peek. The zero value is not usable;
// construct with New.
type Ring struct {
	buf  []byte
	head int // index of the first staged byte
	size int // number of staged bytes
}

// New creates a Ring holding at most capacity bytes. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]byte, capacity)}
}

// Cap returns the fixed capacity of the ring.
func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the number of currently staged bytes.
func (r *Ring) Len() int { return r.size }

// Free returns how many more bytes the ring can accept.
func (r *Ring) Free() int { return len(r.buf) - r.size }

// Push stages p at the tail of the ring and returns len(p).
//
// Callers must size their reads to Free() before pushing; offering more than
// the free capacity is a contract violation and panics. This is deliberate:
// overfilling means the caller's backpressure accounting is broken, and
// silently dropping or truncating bytes would corrupt the byte stream.
func (r *Ring) Push(p []byte) int {
	if len(p) > r.Free() {
		panic("relay: push exceeds free capacity")
	}
	tail := (r.head + r.size) % len(r.buf)
	n := copy(r.buf[tail:], p)
	if n < len(p) {
		copy(r.buf, p[n:])
	}
	r.size += len(p)
	return len(p)
}

// Peek returns a view of the first contiguous run of staged bytes without
// consuming them. When the staged bytes wrap around the end of the backing
// array, Peek returns only the head segment; consume it with Shift and peek
// again for the remainder. Returns nil when the ring is empty.
//
// The view aliases the ring's internal storage and is invalidated by the
// next Push or Shift.
func (r *Ring) Peek() []byte {
	if r.size == 0 {
		return nil
	}
	end := r.head + r.size
	if end > len(r.buf) {
		end = len(r.buf)
	}
	return r.buf[r.head:end]
}

// Shift discards the first n staged bytes as consumed. Shifting more bytes
// than are staged panics.
func (r *Ring) Shift(n int) {
	if n < 0 || n > r.size {
		panic("relay: shift beyond staged bytes")
	}
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
	if r.size == 0 {
		// Reset to maximize the next contiguous view.
		r.head = 0
	}
}
