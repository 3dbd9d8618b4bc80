package conn_test

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgate/flowgate/core/conn"
	"github.com/flowgate/flowgate/core/flow"
)

// scriptFlow replays a fixed sequence of receive chunks, records everything
// sent, and counts calls so tests can assert the adapter's exact behavior
// against the flow.
type scriptFlow struct {
	mu          sync.Mutex
	chunks      [][]byte
	eofWithData bool  // report io.EOF on the same call that delivers the final bytes
	recvErr     error // returned once chunks are exhausted; io.EOF if nil
	sendErr     error // returned by Send after sendLimit bytes
	sendLimit   int   // bytes Send accepts before failing; 0 means all
	sent        []byte
	recvCalls   int
	sendCalls   int
	closeCalls  int
}

func (f *scriptFlow) Receive(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recvCalls++
	if len(f.chunks) == 0 {
		if f.recvErr != nil {
			return 0, f.recvErr
		}
		return 0, io.EOF
	}
	chunk := f.chunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		f.chunks[0] = chunk[n:]
	} else {
		f.chunks = f.chunks[1:]
	}
	if f.eofWithData && len(f.chunks) == 0 {
		return n, io.EOF
	}
	return n, nil
}

func (f *scriptFlow) Send(bufs net.Buffers) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	var total int64
	for _, b := range bufs {
		room := len(b)
		if f.sendErr != nil && f.sendLimit-len(f.sent) < room {
			room = f.sendLimit - len(f.sent)
		}
		if room < 0 {
			room = 0
		}
		f.sent = append(f.sent, b[:room]...)
		total += int64(room)
		if room < len(b) {
			return total, f.sendErr
		}
	}
	return total, nil
}

func (f *scriptFlow) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

func (f *scriptFlow) stats() (recv, send, closes int, sent []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recvCalls, f.sendCalls, f.closeCalls, append([]byte(nil), f.sent...)
}

// testMachine is a scripted protocol state machine. Its read side pulls
// input until target bytes arrive (or end of input), then parks while the
// write side wakes up, emits the configured response, and closes. The read
// side closes only after the write side has finished, the way a real HTTP
// machine flushes its response before tearing the connection down.
type testMachine struct {
	mu          sync.Mutex
	target      int         // bytes to read before the read side is done; 0 reads to EOF
	response    net.Buffers // written once the read side is done
	writeFirst  bool        // write the response before reading anything
	consumeMax  int         // per-call consume cap; 0 means consume all
	got         []byte
	eofConsumes int
	wrote       []int64
	errs        []error
	readDone    bool
	writeDone   bool
	sentResp    bool
	readResume  func()
	writeResume func()
}

func (m *testMachine) NextRead() conn.Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.readDone && m.writeDone:
		return conn.OpClose
	case m.readDone, m.writeFirst && !m.writeDone:
		return conn.OpYield // wait for the response to flush
	default:
		return conn.OpRead
	}
}

func (m *testMachine) ConsumeRead(view []byte) int {
	m.mu.Lock()
	n := len(view)
	if n == 0 {
		m.eofConsumes++
		m.readDone = true
	} else {
		if m.consumeMax > 0 && n > m.consumeMax {
			n = m.consumeMax
		}
		m.got = append(m.got, view[:n]...)
		if m.target > 0 && len(m.got) >= m.target {
			m.readDone = true
		}
	}
	done, resume := m.readDone, m.writeResume
	m.mu.Unlock()
	if done && resume != nil {
		resume()
	}
	return n
}

func (m *testMachine) NextWrite() (net.Buffers, conn.Op) {
	m.mu.Lock()
	if !m.readDone && !m.writeFirst {
		m.mu.Unlock()
		return nil, conn.OpYield
	}
	if len(m.response) > 0 && !m.sentResp {
		m.sentResp = true
		bufs := make(net.Buffers, len(m.response))
		copy(bufs, m.response)
		m.mu.Unlock()
		return bufs, conn.OpWrite
	}
	m.writeDone = true
	resume := m.readResume
	m.mu.Unlock()
	if resume != nil {
		resume()
	}
	return nil, conn.OpClose
}

func (m *testMachine) ConsumeWrite(n int64) {
	m.mu.Lock()
	m.wrote = append(m.wrote, n)
	m.writeDone = true
	resume := m.readResume
	m.mu.Unlock()
	if resume != nil {
		resume()
	}
}

func (m *testMachine) OnError(err error) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	// Best-effort teardown: both directions wind down after a flow error.
	m.readDone = true
	m.writeDone = true
	readResume, writeResume := m.readResume, m.writeResume
	m.mu.Unlock()
	if readResume != nil {
		readResume()
	}
	if writeResume != nil {
		writeResume()
	}
}

func (m *testMachine) OnReadResume(resume func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readResume = resume
}

func (m *testMachine) OnWriteResume(resume func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeResume = resume
}

func (m *testMachine) snapshot() (got []byte, eof int, wrote []int64, errs []error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.got...), m.eofConsumes,
		append([]int64(nil), m.wrote...), append([]error(nil), m.errs...)
}

func TestAdapterFragmentedReassembly(t *testing.T) {
	t.Parallel()

	request := make([]byte, 511)
	for i := range request {
		request[i] = byte('a' + i%26)
	}

	fl := &scriptFlow{chunks: [][]byte{
		request[:1], request[1:11], request[11:],
	}}
	machine := &testMachine{target: len(request)}

	adapter := conn.NewAdapter(fl, flow.Endpoint{Address: "10.0.0.1", Port: 40000}, machine)
	require.NoError(t, adapter.Serve(context.Background()))

	got, eof, _, errs := machine.snapshot()
	assert.Equal(t, request, got, "fragments reassemble in order")
	assert.Zero(t, eof)
	assert.Empty(t, errs)

	_, _, closes, _ := fl.stats()
	assert.Equal(t, 1, closes)
}

func TestAdapterImmediateEndOfInput(t *testing.T) {
	t.Parallel()

	fl := &scriptFlow{} // first Receive reports EOF
	machine := &testMachine{}

	adapter := conn.NewAdapter(fl, flow.Endpoint{}, machine)
	require.NoError(t, adapter.Serve(context.Background()))

	_, eof, _, errs := machine.snapshot()
	assert.Equal(t, 1, eof, "exactly one zero-length consume")
	assert.Empty(t, errs)

	recv, send, closes, _ := fl.stats()
	assert.Equal(t, 1, recv, "no receive attempts after end of input")
	assert.Zero(t, send)
	assert.Equal(t, 1, closes)
}

func TestAdapterFinalBytesArriveWithEndOfInput(t *testing.T) {
	t.Parallel()

	// net.Conn.Read may return the final bytes and io.EOF in the same call.
	// Every staged byte must reach the machine before the zero-length
	// consume, even when the machine drains one byte at a time.
	payload := []byte("hello world")
	fl := &scriptFlow{chunks: [][]byte{payload}, eofWithData: true}
	machine := &testMachine{consumeMax: 1}

	adapter := conn.NewAdapter(fl, flow.Endpoint{}, machine)
	require.NoError(t, adapter.Serve(context.Background()))

	got, eof, _, errs := machine.snapshot()
	assert.Equal(t, payload, got, "no bytes lost ahead of end of input")
	assert.Equal(t, 1, eof, "end-of-input consume comes once, after the drain")
	assert.Empty(t, errs)

	recv, _, closes, _ := fl.stats()
	assert.Equal(t, 1, recv, "no receive attempts after end of input")
	assert.Equal(t, 1, closes)
}

func TestAdapterWriteAfterCloseShortCircuits(t *testing.T) {
	t.Parallel()

	// Read side hits EOF immediately and closes the flow; the machine then
	// offers a response anyway. The adapter must report zero bytes written
	// without touching the flow.
	fl := &scriptFlow{}
	machine := &testMachine{response: net.Buffers{[]byte("too late")}}

	adapter := conn.NewAdapter(fl, flow.Endpoint{}, machine)
	require.NoError(t, adapter.Serve(context.Background()))

	_, _, wrote, _ := machine.snapshot()
	require.Equal(t, []int64{0}, wrote)

	_, send, closes, sent := fl.stats()
	assert.Zero(t, send, "send never reaches a closed flow")
	assert.Empty(t, sent)
	assert.Equal(t, 1, closes)
}

func TestAdapterWritesResponse(t *testing.T) {
	t.Parallel()

	fl := &scriptFlow{chunks: [][]byte{[]byte("ping")}}
	machine := &testMachine{
		target:   4,
		response: net.Buffers{[]byte("HTTP/1.1 200 OK\r\n"), []byte("\r\n")},
	}

	adapter := conn.NewAdapter(fl, flow.Endpoint{}, machine)
	require.NoError(t, adapter.Serve(context.Background()))

	_, _, wrote, errs := machine.snapshot()
	require.Equal(t, []int64{19}, wrote)
	assert.Empty(t, errs)

	_, _, _, sent := fl.stats()
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", string(sent), "buffers sent in order")
}

func TestAdapterPartialConsumptionBackpressure(t *testing.T) {
	t.Parallel()

	payload := []byte("the quick brown fox jumps over the lazy dog")
	fl := &scriptFlow{chunks: [][]byte{payload}}
	machine := &testMachine{target: len(payload), consumeMax: 3}

	adapter := conn.NewAdapter(fl, flow.Endpoint{}, machine, conn.WithRingCapacity(64))
	require.NoError(t, adapter.Serve(context.Background()))

	got, _, _, errs := machine.snapshot()
	assert.Equal(t, payload, got, "slow consumption loses nothing")
	assert.Empty(t, errs)
}

func TestAdapterReceiveErrorIsReported(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	fl := &scriptFlow{recvErr: boom}
	machine := &testMachine{}

	adapter := conn.NewAdapter(fl, flow.Endpoint{}, machine)
	require.NoError(t, adapter.Serve(context.Background()))

	_, eof, _, errs := machine.snapshot()
	assert.Zero(t, eof, "a flow error is not end of input")
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)

	_, _, closes, _ := fl.stats()
	assert.Equal(t, 1, closes)
}

func TestAdapterSendErrorReportsPartialCount(t *testing.T) {
	t.Parallel()

	brokenPipe := errors.New("broken pipe")
	fl := &scriptFlow{sendErr: brokenPipe, sendLimit: 4}
	machine := &testMachine{response: net.Buffers{[]byte("hello world")}, writeFirst: true}

	adapter := conn.NewAdapter(fl, flow.Endpoint{}, machine)
	require.NoError(t, adapter.Serve(context.Background()))

	_, _, wrote, errs := machine.snapshot()
	require.NotEmpty(t, wrote)
	assert.Equal(t, int64(4), wrote[0], "partial progress is reported, not retried")
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], brokenPipe)

	_, _, _, sent := fl.stats()
	assert.Equal(t, "hell", string(sent))
}

func TestAdapterCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	fl := &scriptFlow{}
	adapter := conn.NewAdapter(fl, flow.Endpoint{}, &testMachine{})

	require.NoError(t, adapter.Close())
	require.NoError(t, adapter.Close())

	_, _, closes, _ := fl.stats()
	assert.Equal(t, 1, closes, "at most one underlying flow close")
}

func TestAdapterOrderingProperty(t *testing.T) {
	t.Parallel()

	// Feed a long byte sequence through uneven fragments and a small ring;
	// the concatenation of consumed views must equal the received bytes.
	var payload []byte
	for i := range 2000 {
		payload = append(payload, byte(i*31))
	}
	fl := &scriptFlow{chunks: [][]byte{
		payload[:7], payload[7:8], payload[8:300], payload[300:1024], payload[1024:],
	}}
	machine := &testMachine{target: len(payload), consumeMax: 100}

	adapter := conn.NewAdapter(fl, flow.Endpoint{}, machine,
		conn.WithRingCapacity(128), conn.WithReadBufferSize(64))
	require.NoError(t, adapter.Serve(context.Background()))

	got, _, _, errs := machine.snapshot()
	assert.Equal(t, payload, got)
	assert.Empty(t, errs)
}
