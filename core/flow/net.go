package flow

import (
	"net"
)

// NetFlow adapts a net.Conn (plain TCP, tls.Conn, net.Pipe, ...) to the
// Flow capability set.
type NetFlow struct {
	conn net.Conn
}

// NewNetFlow wraps an established connection as a Flow. The flow takes
// ownership of the connection.
func NewNetFlow(conn net.Conn) *NetFlow {
	return &NetFlow{conn: conn}
}

// Receive reads available bytes into p.
func (f *NetFlow) Receive(p []byte) (int, error) {
	return f.conn.Read(p)
}

// Send writes the buffers in order using vectored I/O where the platform
// supports it.
func (f *NetFlow) Send(bufs net.Buffers) (int64, error) {
	// WriteTo consumes bufs; callers re-offer any remainder themselves
	// based on the returned count.
	return bufs.WriteTo(f.conn)
}

// Close closes the underlying connection.
func (f *NetFlow) Close() error {
	return f.conn.Close()
}

// NetAcceptor adapts a net.Listener to the Acceptor capability set.
type NetAcceptor struct {
	ln net.Listener
}

// NewNetAcceptor wraps an open listener. The acceptor does not take
// ownership; closing the listener remains the caller's responsibility and
// is the way to break a blocked Accept.
func NewNetAcceptor(ln net.Listener) *NetAcceptor {
	return &NetAcceptor{ln: ln}
}

// Accept waits for the next connection and derives its peer endpoint.
func (a *NetAcceptor) Accept() (Flow, Endpoint, error) {
	conn, err := a.ln.Accept()
	if err != nil {
		return nil, Endpoint{}, err
	}
	return NewNetFlow(conn), EndpointFromAddr(conn.RemoteAddr()), nil
}

// Listen opens a TCP listener on addr and returns it wrapped as an
// Acceptor alongside the raw listener for shutdown control.
func Listen(addr string) (*NetAcceptor, net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	return NewNetAcceptor(ln), ln, nil
}
