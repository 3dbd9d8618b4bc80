// Package flow defines the minimal capability set the connection adapter
// needs from a transport: an owned bidirectional byte stream (Flow) and a
// source of such streams (Acceptor). Plain TCP, TLS-wrapped TCP, and
// in-memory test transports all satisfy it.
//
// Ownership is strict: exactly one adapter drives a Flow at a time, and
// ownership ends at Close. Close must be safe to call after a failed
// Receive or Send, and implementations are expected to tolerate repeated
// calls from the owner's shutdown path.
//
// End of input is signaled by io.EOF from Receive, matching the io.Reader
// convention.
package flow
