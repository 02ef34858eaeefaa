package hostlink

// connState is the lifecycle of a HostConn as seen from outside. It has the
// following transitions:
// ∅            → Handshaking
// Handshaking  → Established
// Handshaking  → Erroring
// Handshaking  → Dead
// Established  → Erroring
// Established  → Dead
// Erroring     → Dead
//
// The state is not stored; it is a projection of the connection's flags, so
// it can never disagree with them. The meaning of each state is described
// above the state's definition below.
type connState string

const (
	// Handshaking is the initial state: no client id yet, pestering the host
	// with handshake requests.
	stateHandshaking connState = "handshaking"
	// Established means the host assigned a client id and application
	// traffic can flow.
	stateEstablished = "established"
	// Erroring means the session is being torn down gracefully: disconnect
	// requests are resent until the host acknowledges or liveness expires.
	stateErroring = "erroring"
	// Dead is terminal; the registry has been notified exactly once.
	stateDead = "dead"
)

// state reports the connection's current lifecycle state.
func (c *HostConn) state() connState {
	switch {
	case c.diedAlready:
		return stateDead
	case c.errored:
		return stateErroring
	case c.clientID != unassignedClientID:
		return stateEstablished
	default:
		return stateHandshaking
	}
}
