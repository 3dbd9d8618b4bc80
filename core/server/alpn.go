package server

import (
	"fmt"

	"github.com/flowgate/flowgate/core/conn"
)

// Recognized ALPN protocol identifiers.
const (
	ProtoHTTP10 = "http/1.0"
	ProtoHTTP11 = "http/1.1"
	ProtoH2     = "h2"
)

// alpnPreference orders NextProtos for the handshake: prefer HTTP/2 when
// both sides support it.
var alpnPreference = []string{ProtoH2, ProtoHTTP11, ProtoHTTP10}

// Dispatcher routes a completed TLS handshake to the machine factory for
// its negotiated protocol. Tokens outside the recognized set never change
// behavior: they select the fallback, same as an absent token.
//
// Register all protocols before serving; Dispatcher is not safe for
// concurrent mutation.
type Dispatcher struct {
	factories map[string]conn.MachineFactory
	fallback  conn.MachineFactory
}

// NewDispatcher creates a dispatcher with the given fallback factory,
// conventionally HTTP/1.1.
func NewDispatcher(fallback conn.MachineFactory) *Dispatcher {
	return &Dispatcher{
		factories: make(map[string]conn.MachineFactory),
		fallback:  fallback,
	}
}

// Register binds a recognized protocol identifier to a machine factory.
func (d *Dispatcher) Register(proto string, factory conn.MachineFactory) error {
	switch proto {
	case ProtoHTTP10, ProtoHTTP11, ProtoH2:
		d.factories[proto] = factory
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProtocol, proto)
	}
}

// Select returns the factory for the negotiated protocol, or the fallback
// when the token is absent, unrecognized, or simply not registered.
func (d *Dispatcher) Select(negotiated string) conn.MachineFactory {
	if factory, ok := d.factories[negotiated]; ok {
		return factory
	}
	return d.fallback
}

// Protos returns the registered protocol identifiers in handshake
// preference order, for use as tls.Config.NextProtos.
func (d *Dispatcher) Protos() []string {
	protos := make([]string, 0, len(d.factories))
	for _, proto := range alpnPreference {
		if _, ok := d.factories[proto]; ok {
			protos = append(protos, proto)
		}
	}
	return protos
}
