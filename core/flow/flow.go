package flow

import (
	"net"
	"strconv"
)

// Flow is an abstract, ownable, bidirectional byte-stream endpoint.
type Flow interface {
	// Receive fills p with available bytes and returns how many were read.
	// It returns io.EOF when the peer has finished sending; no further
	// Receive calls should be made after that.
	Receive(p []byte) (int, error)

	// Send writes the buffers to the flow in order and returns the total
	// number of bytes written. A short count with a nil error does not
	// occur; on error the count covers bytes written before the failure.
	Send(bufs net.Buffers) (int64, error)

	// Close releases the endpoint. Safe to call after a failed Receive or
	// Send on the same handle.
	Close() error
}

// Acceptor produces flows from a transport-specific listener.
type Acceptor interface {
	// Accept blocks until a new flow is available and returns it together
	// with the peer's endpoint metadata. Accept errors are fatal to the
	// listener loop consuming this acceptor.
	Accept() (Flow, Endpoint, error)
}

// Endpoint identifies the remote side of a flow. It is derived once per
// accepted flow and never changes for the life of the connection.
type Endpoint struct {
	Address string
	Port    int
}

// String renders the endpoint as host:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Address, strconv.Itoa(e.Port))
}

// EndpointFromAddr derives endpoint metadata from a net.Addr. Addresses
// without a port component keep the whole string as the address.
func EndpointFromAddr(addr net.Addr) Endpoint {
	if addr == nil {
		return Endpoint{}
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return Endpoint{Address: tcp.IP.String(), Port: tcp.Port}
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return Endpoint{Address: addr.String()}
	}
	port, _ := strconv.Atoi(portStr)
	return Endpoint{Address: host, Port: port}
}
