// Package hostlink implements the client side of a session protocol layered
// over an unreliable, connectionless transport (typically UDP).
//
// The transport gives no delivery guarantee, no ordering, and no notion of a
// connection, so hostlink builds the missing pieces itself: a handshake that
// obtains a host-assigned client id, a liveness check based on when the host
// was last heard from, and a best-effort disconnect handshake on the way out.
//
// A HostConn never blocks and owns no goroutines. It is driven entirely by
// two calls the embedding program makes from a single loop: Update on a
// periodic tick, and HandleGamePacket for every inbound datagram. "Waiting"
// is always expressed as timestamp comparisons across ticks. Outbound
// packets are handed to a Sender and forgotten; whether they arrive is the
// protocol's problem, not the caller's.
//
// The Registry tracks which HostConn is the process's current outbound
// connection and receives exactly one notification when that connection is
// lost. Driver wires a HostConn, a UDPTransport, and a ticker into the
// single-threaded loop described above for programs that don't already have
// one.
package hostlink
