package proto

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// HandshakeRequest is a client's request for a client id, resent until the
// host answers or the client gives up.
type HandshakeRequest struct {
	Version    uint16
	RequestID  uint8
	InstanceID []byte
}

// DisconnectRequest announces that the identified client is leaving.
type DisconnectRequest struct {
	ClientID uint8
}

// EncodeHandshakeRequest builds the handshake request datagram.
// The instance id may be any length including zero; the host treats it as
// opaque bytes.
func EncodeHandshakeRequest(version uint16, requestID uint8, instanceID []byte) []byte {
	msg := make([]byte, handshakeHeaderLen+len(instanceID))
	msg[0] = TagHandshakeRequest
	binary.LittleEndian.PutUint16(msg[1:3], version)
	msg[3] = requestID
	copy(msg[handshakeHeaderLen:], instanceID)
	return msg
}

// ParseHandshakeRequest decodes a handshake request datagram. The returned
// InstanceID aliases buf.
func ParseHandshakeRequest(buf []byte) (HandshakeRequest, error) {
	if len(buf) < handshakeHeaderLen {
		return HandshakeRequest{}, errors.Errorf("handshake request too short: %d bytes", len(buf))
	}
	if buf[0] != TagHandshakeRequest {
		return HandshakeRequest{}, errors.Errorf("not a handshake request: tag 0x%02x", buf[0])
	}
	return HandshakeRequest{
		Version:    binary.LittleEndian.Uint16(buf[1:3]),
		RequestID:  buf[3],
		InstanceID: buf[handshakeHeaderLen:],
	}, nil
}

// EncodeDisconnectRequest builds the 2-byte disconnect request datagram.
// The client id must fit the wire's single byte; a caller holding a wider id
// has corrupted state, so this panics rather than truncating.
func EncodeDisconnectRequest(clientID int) []byte {
	return []byte{TagDisconnectRequest, checkFitByte(clientID)}
}

// ParseDisconnectRequest decodes a disconnect request datagram.
func ParseDisconnectRequest(buf []byte) (DisconnectRequest, error) {
	if len(buf) != 2 {
		return DisconnectRequest{}, errors.Errorf("disconnect request must be 2 bytes, got %d", len(buf))
	}
	if buf[0] != TagDisconnectRequest {
		return DisconnectRequest{}, errors.Errorf("not a disconnect request: tag 0x%02x", buf[0])
	}
	return DisconnectRequest{ClientID: buf[1]}, nil
}

// FrameGamePacket prepends the game-packet header to an already-compressed
// payload. The payload is opaque; framing is the only transformation.
func FrameGamePacket(clientID int, payload []byte) []byte {
	if len(payload) == 0 {
		panic("BUG: framing an empty game packet")
	}
	msg := make([]byte, 2+len(payload))
	msg[0] = TagGamePacketCompressed
	msg[1] = checkFitByte(clientID)
	copy(msg[2:], payload)
	return msg
}

// ParseGamePacket splits a framed game packet into its client id and
// payload. The returned payload aliases buf.
func ParseGamePacket(buf []byte) (clientID uint8, payload []byte, err error) {
	if len(buf) < 3 {
		return 0, nil, errors.Errorf("game packet too short: %d bytes", len(buf))
	}
	if buf[0] != TagGamePacketCompressed {
		return 0, nil, errors.Errorf("not a game packet: tag 0x%02x", buf[0])
	}
	return buf[1], buf[2:], nil
}

func checkFitByte(v int) byte {
	if v < 0 || v > 0xff {
		panic(fmt.Sprintf("BUG: value %d does not fit in a wire byte", v))
	}
	return byte(v)
}
