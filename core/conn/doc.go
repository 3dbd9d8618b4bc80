// Package conn adapts abstract byte flows to pull-based protocol state
// machines. An Adapter owns one flow and drives one Machine: its read
// direction stages received bytes in a bounded ring buffer and hands them
// to the machine at the machine's pace, its write direction sends the
// buffers the machine produces, and the two directions coordinate a
// single idempotent close of the flow.
//
// The Machine interface is the boundary to the HTTP (or any other)
// protocol implementation: the adapter never parses or serializes protocol
// bytes itself. Machines ask for work by returning OpRead, OpWrite,
// OpYield, or OpClose from their polling methods and learn about progress
// through the Consume callbacks.
//
// A Listener runs the accept side: one goroutine accepting flows, one
// adapter goroutine per accepted flow, so a long-lived connection never
// blocks subsequent accepts.
//
// Errors from a flow are fatal to that one connection and invisible to the
// process: they are reported to the machine's OnError hook for a
// best-effort error response and then discarded.
package conn
