package hostlink

import (
	"net"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/partywire/hostlink/internal/proto"
)

const (
	// handshakeRetryInterval is how often a handshake request is resent
	// while no client id has been assigned. The request is idempotent, so
	// the client just keeps pestering the host.
	handshakeRetryInterval = 500 * time.Millisecond
	// disconnectRetryInterval is how often a disconnect request is resent
	// while tearing down, until the host acknowledges or liveness expires.
	disconnectRetryInterval = time.Second
	// silenceTimeoutInitial is how long the host may stay silent before a
	// connection that never got established is declared unreachable.
	silenceTimeoutInitial = 5 * time.Second
	// silenceTimeoutEstablished is the silence allowance once the host has
	// assigned a client id at least once.
	silenceTimeoutEstablished = 10 * time.Second
)

// unassignedClientID is the client id before the host assigns one.
const unassignedClientID = -1

// HostConn is one outbound session attempt to a host. It is a pure state
// machine: the caller ticks it with Update, feeds it inbound datagrams with
// HandleGamePacket, and it emits control packets through its Sender. Both
// calls must come from the same single driving loop; HostConn does no
// locking of its own.
type HostConn struct {
	l       log15.Logger
	clk     clock.PassiveClock
	sender  Sender
	reg     registryIface
	session Session

	addr       net.Addr
	instanceID []byte

	protocolVersion int
	requestID       uint8
	clientID        int

	lastClientIDRequest   time.Time
	lastDisconnectRequest time.Time
	lastHostResponse      time.Time

	errored     bool
	dying       bool
	diedAlready bool
}

// Option is an option function for HostConn.
// See Rob Pike's post on the topic for more information on this pattern:
// https://commandcenter.blogspot.com/2014/01/self-referential-functions-and-design.html
type Option func(c *HostConn)

// WithLogger configures the logger to use for connection operations.
// By default, nothing will be logged.
func WithLogger(l log15.Logger) Option {
	return func(c *HostConn) {
		c.l = l
	}
}

// WithClock configures the clock used for all liveness and retry decisions.
// The default is the real clock; tests substitute a fake one.
func WithClock(clk clock.PassiveClock) Option {
	return func(c *HostConn) {
		c.clk = clk
	}
}

// WithSession attaches the session layer that interprets packets and tracks
// communication state. Without one, the connection is lifecycle-only.
func WithSession(s Session) Option {
	return func(c *HostConn) {
		c.session = s
	}
}

// WithInstanceID overrides the session-instance identifier carried in
// handshake requests. The default is one uuid per process.
func WithInstanceID(id []byte) Option {
	return func(c *HostConn) {
		c.instanceID = append([]byte(nil), id...)
	}
}

// New constructs a connection attempt to the host at addr, sending through
// sender and reporting lifecycle events to reg. The caller should install it
// with reg.Adopt and then start ticking Update.
func New(addr net.Addr, sender Sender, reg *Registry, opts ...Option) (*HostConn, error) {
	if reg == nil {
		return nil, errors.New("a registry is required")
	}
	return newHostConn(addr, sender, reg, opts...)
}

func newHostConn(addr net.Addr, sender Sender, reg registryIface, opts ...Option) (*HostConn, error) {
	if addr == nil {
		return nil, errors.New("host address is required")
	}
	if sender == nil {
		return nil, errors.New("a sender is required")
	}
	if reg == nil {
		return nil, errors.New("a registry is required")
	}
	noopLogger := log15.New()
	noopLogger.SetHandler(log15.DiscardHandler())
	c := &HostConn{
		l:               noopLogger,
		clk:             clock.RealClock{},
		sender:          sender,
		reg:             reg,
		session:         nopSession{},
		addr:            cloneAddr(addr),
		protocolVersion: proto.VersionMax,
		requestID:       nextRequestID(),
		clientID:        unassignedClientID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.instanceID == nil {
		c.instanceID = processInstanceID()
	}
	// Seed liveness optimistically so the timeout measures silence from the
	// start of the attempt, not from some zero time in the past.
	c.lastHostResponse = c.clk.Now()

	c.l.Info("connecting to host", "addr", c.addr)
	if c.reg.showConnectProgress() {
		c.reg.notice(NoticeConnecting)
	}
	return c, nil
}

// RemoteAddr returns the host's address.
func (c *HostConn) RemoteAddr() net.Addr {
	return c.addr
}

// ClientID returns the host-assigned client id, or -1 before assignment.
func (c *HostConn) ClientID() int {
	return c.clientID
}

// ProtocolVersion returns the version the next handshake request will carry.
func (c *HostConn) ProtocolVersion() int {
	return c.protocolVersion
}

// Errored reports whether the connection has entered teardown.
func (c *HostConn) Errored() bool {
	return c.errored
}

// Update advances the connection by one tick. Ticks must arrive well under
// the 500ms handshake interval for the retry cadences to hold.
func (c *HostConn) Update() {
	if c.diedAlready {
		// The registry was already told this connection is gone; a tick
		// still arriving here is a caller bug, not something to act on.
		c.l.Warn("update on a dead host connection", "addr", c.addr)
		return
	}
	now := c.clk.Now()
	c.session.Update(now)

	// Keep pestering the host until it hands us a client id.
	if !c.errored {
		if c.clientID == unassignedClientID && now.Sub(c.lastClientIDRequest) >= handshakeRetryInterval {
			c.lastClientIDRequest = now
			c.sendRaw(proto.EncodeHandshakeRequest(uint16(c.protocolVersion), c.requestID, c.instanceID))
		}
	}

	timeout := silenceTimeoutInitial
	if c.session.CanCommunicate() {
		timeout = silenceTimeoutEstablished
	}
	if now.Sub(c.lastHostResponse) > timeout {
		if !c.session.CanCommunicate() {
			c.reg.notice(NoticeConnectionFailed)
		}
		// The host has already gone silent; a disconnect handshake would be
		// shouting into the void. Die immediately.
		c.l.Info("host connection timed out", "addr", c.addr, "state", c.state())
		c.die()
		return
	}

	if c.errored && now.Sub(c.lastDisconnectRequest) >= disconnectRetryInterval {
		if c.clientID == unassignedClientID {
			// Never got an id, so there is nothing to disconnect with.
			c.die()
			return
		}
		c.sendDisconnectRequest()
	}
}

// HandleGamePacket delivers one inbound datagram. Any packet at all counts
// as proof of host liveness; interpretation is the session layer's job.
func (c *HostConn) HandleGamePacket(buf []byte) {
	c.lastHostResponse = c.clk.Now()
	c.session.HandleMessage(buf)
}

// SendGamePacketCompressed frames an already-compressed application payload
// and ships it. The payload must be non-empty and a client id must have been
// assigned; violating either is a caller bug.
func (c *HostConn) SendGamePacketCompressed(data []byte) {
	c.sendRaw(proto.FrameGamePacket(c.clientID, data))
}

// SetClientID records the id the host assigned for this session. Called by
// the session layer when a handshake reply carries one. Assignment happens
// exactly once; the id never resets for the life of the connection.
func (c *HostConn) SetClientID(id int) {
	if id < 0 {
		panic("BUG: assigning a negative client id")
	}
	if c.clientID != unassignedClientID {
		if c.clientID == id {
			return
		}
		panic("BUG: reassigning an already-assigned client id")
	}
	c.clientID = id
	c.l.Info("host assigned client id", "addr", c.addr, "clientID", id)
}

// SwitchProtocol retries the handshake one protocol version lower. It
// reports false once the floor is reached, meaning no further downgrade is
// possible and the attempt should be abandoned.
func (c *HostConn) SwitchProtocol() bool {
	if c.protocolVersion <= proto.VersionMin {
		return false
	}
	c.protocolVersion--
	// Fresh request id so replies to the old-version requests get ignored.
	c.requestID = nextRequestID()
	c.l.Info("downgrading protocol", "addr", c.addr, "version", c.protocolVersion)
	return true
}

// Error enters teardown for a fatal session condition. On first entry it
// sends one best-effort disconnect request if an id exists, otherwise dies
// on the spot; later ticks handle the retries.
func (c *HostConn) Error(msg string) {
	if !c.errored {
		c.l.Info("host connection errored", "addr", c.addr, "msg", msg, "state", c.state())
		if c.clientID != unassignedClientID {
			c.sendDisconnectRequest()
		} else {
			c.die()
		}
	}
	c.session.ReportError(msg)
	c.errored = true
}

// RequestDisconnect starts a graceful local disconnect. All future ticks
// degrade to disconnect-retry-then-die behavior.
func (c *HostConn) RequestDisconnect() {
	c.errored = true
	if c.clientID != unassignedClientID {
		c.sendDisconnectRequest()
	}
}

// Close marks the connection inert. It is the first step of teardown: after
// Close, no code path of this object reaches the wire again, whatever other
// flags say. Idempotent.
func (c *HostConn) Close() {
	c.dying = true
}

// die asks the registry to drop this connection. Exactly one notification is
// ever delivered; duplicate calls and calls from a superseded connection are
// caller bugs that get a diagnostic and no state change.
func (c *HostConn) die() {
	if c.diedAlready {
		c.l.Error("duplicate teardown of host connection", "addr", c.addr)
		return
	}
	if !c.reg.isCurrent(c) {
		c.l.Error("teardown driven by a non-current host connection", "addr", c.addr)
		return
	}
	c.reg.connectionLost(c)
	c.diedAlready = true
}

func (c *HostConn) sendDisconnectRequest() {
	if c.clientID == unassignedClientID {
		panic("BUG: disconnect request without a client id")
	}
	c.lastDisconnectRequest = c.clk.Now()
	c.sendRaw(proto.EncodeDisconnectRequest(c.clientID))
}

// sendRaw hands a datagram to the sender unless the connection has been
// marked inert.
func (c *HostConn) sendRaw(msg []byte) {
	if c.dying {
		return
	}
	c.sender.Send(msg, c.addr)
}

// cloneAddr copies addr so the connection exclusively owns its address for
// its whole life. Address types other than UDP are treated as immutable.
func cloneAddr(addr net.Addr) net.Addr {
	if ua, ok := addr.(*net.UDPAddr); ok {
		dup := *ua
		dup.IP = append(net.IP(nil), ua.IP...)
		return &dup
	}
	return addr
}
