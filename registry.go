package hostlink

import (
	"github.com/inconshreveable/log15"
)

// Notice is a user-facing connection event. How it is rendered (screen
// message, toast, log line) is the embedding program's business.
type Notice string

const (
	// NoticeConnecting is emitted when a connection attempt starts. Gated by
	// WithConnectProgress since most programs only want it in verbose mode.
	NoticeConnecting Notice = "connecting"
	// NoticeConnectionFailed is emitted when a connection attempt times out
	// before the host ever assigned a client id.
	NoticeConnectionFailed Notice = "connection-failed"
)

// registryIface is the slice of the registry a HostConn consumes: currency
// checks, the one lost-connection notification, and user notices.
type registryIface interface {
	isCurrent(c *HostConn) bool
	connectionLost(c *HostConn)
	showConnectProgress() bool
	notice(n Notice)
}

// Registry owns the process's "current outbound connection" slot. A HostConn
// never destroys itself; it tells the registry the connection is lost, and
// the registry clears the slot and informs the program.
//
// Like HostConn, the registry is single-threaded: all calls must come from
// the same loop that drives Update and HandleGamePacket.
type Registry struct {
	l               log15.Logger
	current         *HostConn
	connectProgress bool
	onLost          func()
	onNotice        func(Notice)
}

// RegistryOption is an option function for NewRegistry.
type RegistryOption func(r *Registry)

// WithRegistryLogger configures the logger for registry operations.
// By default, nothing will be logged.
func WithRegistryLogger(l log15.Logger) RegistryOption {
	return func(r *Registry) {
		r.l = l
	}
}

// WithConnectProgress makes connections emit NoticeConnecting when an
// attempt starts.
func WithConnectProgress(show bool) RegistryOption {
	return func(r *Registry) {
		r.connectProgress = show
	}
}

// WithConnectionLostFunc sets the callback invoked when the current
// connection dies. It fires at most once per connection.
func WithConnectionLostFunc(fn func()) RegistryOption {
	return func(r *Registry) {
		r.onLost = fn
	}
}

// WithNoticeFunc sets the callback that renders user-facing notices.
// By default notices are dropped.
func WithNoticeFunc(fn func(Notice)) RegistryOption {
	return func(r *Registry) {
		r.onNotice = fn
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	noopLogger := log15.New()
	noopLogger.SetHandler(log15.DiscardHandler())
	r := &Registry{
		l: noopLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Adopt installs conn as the current outbound connection. Any previous
// connection is superseded: marked inert so nothing it still does can reach
// the wire, but left to its owner to discard.
func (r *Registry) Adopt(conn *HostConn) {
	if prev := r.current; prev != nil && prev != conn {
		r.l.Info("superseding current host connection", "prev", prev.RemoteAddr())
		prev.Close()
	}
	r.current = conn
}

// Current returns the current outbound connection, or nil.
func (r *Registry) Current() *HostConn {
	return r.current
}

// Drop clears the slot if conn occupies it, without any lost-connection
// notification. Used when the program abandons an attempt on its own.
func (r *Registry) Drop(conn *HostConn) {
	if r.current == conn {
		r.current = nil
	}
}

func (r *Registry) isCurrent(c *HostConn) bool {
	return r.current == c
}

func (r *Registry) connectionLost(c *HostConn) {
	r.l.Info("host connection lost", "addr", c.RemoteAddr())
	// The registry owns the object; dropping it also marks it inert so a
	// straggling tick can't reach the wire.
	c.Close()
	r.current = nil
	if r.onLost != nil {
		r.onLost()
	}
}

func (r *Registry) showConnectProgress() bool {
	return r.connectProgress
}

func (r *Registry) notice(n Notice) {
	if r.onNotice != nil {
		r.onNotice(n)
	}
}
