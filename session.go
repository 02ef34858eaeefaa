package hostlink

import "time"

// Session is the layer above HostConn: it interprets inbound packets,
// performs its own periodic work, and keeps its own error bookkeeping.
// HostConn governs only the session lifecycle (handshake, liveness,
// disconnect); everything the packets *mean* lives behind this interface.
//
// Assigning the client id is a Session concern: when a handshake reply
// carries one, the Session calls HostConn.SetClientID.
type Session interface {
	// Update performs the session layer's periodic work. HostConn calls it
	// at the top of every tick, before any lifecycle decisions.
	Update(now time.Time)

	// HandleMessage interprets one inbound packet. HostConn has already
	// counted the packet toward liveness by the time this is called.
	HandleMessage(data []byte)

	// ReportError records a fatal session condition. HostConn calls it from
	// Error after its own teardown steps.
	ReportError(msg string)

	// CanCommunicate reports whether a client id has ever been assigned for
	// this session. It widens the liveness timeout once true.
	CanCommunicate() bool
}

// nopSession is the default when no session layer is attached; it lets a
// HostConn be exercised purely as a lifecycle machine. With nothing above it
// to ever assign a client id, CanCommunicate stays false and the short
// pre-establishment timeout applies.
type nopSession struct{}

func (nopSession) Update(time.Time)       {}
func (nopSession) HandleMessage([]byte)   {}
func (nopSession) ReportError(msg string) {}
func (nopSession) CanCommunicate() bool   { return false }
