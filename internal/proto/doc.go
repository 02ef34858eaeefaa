// Package proto holds the wire constants and the byte layouts of the control
// packets a client exchanges with a host, along with the functions for
// building and parsing them.
//
// All three layouts are fixed-position byte headers; multi-byte fields use
// little-endian order. They must not change shape, since hosts at any
// version parse them positionally:
//
//	handshake request:  [0]=tag [1..2]=protocol version [3]=request id [4..]=instance id
//	disconnect request: [0]=tag [1]=client id
//	game packet:        [0]=tag [1]=client id [2..]=compressed payload
//
// The handshake request is deliberately idempotent: the client resends it
// until the host answers, and the request id lets the host (and the client,
// on the reply path) discard answers to a superseded attempt. The protocol
// version field is how version negotiation happens at all — the client
// starts at the newest version it speaks and walks downward one version per
// failed attempt until VersionMin.
package proto
