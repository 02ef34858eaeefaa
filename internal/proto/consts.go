package proto

const (
	// TagHandshakeRequest marks a client's request for a client id.
	TagHandshakeRequest byte = 0x0b
	// TagDisconnectRequest marks a client's announcement that it is leaving
	// an established session.
	TagDisconnectRequest byte = 0x0c
	// TagGamePacketCompressed marks an opaque compressed application payload
	// from an established client.
	TagGamePacketCompressed byte = 0x0a
)

const (
	// VersionMax is the newest protocol version this client speaks; every
	// session starts here.
	VersionMax = 33
	// VersionMin is the floor below which downgrade is refused.
	VersionMin = 24
)

// handshakeHeaderLen is the fixed part of a handshake request; the instance
// id occupies the remainder of the datagram.
const handshakeHeaderLen = 4
