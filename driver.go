package hostlink

import (
	"context"
	"time"

	"github.com/inconshreveable/log15"
)

// tickInterval is how often the driver ticks its connection. It needs to be
// comfortably under the 500ms handshake retry interval so retry cadences are
// driven on time.
const tickInterval = 50 * time.Millisecond

// Driver runs the single loop a HostConn requires: it multiplexes the
// periodic tick and the transport's inbound datagrams onto serial Update and
// HandleGamePacket calls. Programs that already have such a loop (a game
// loop, typically) don't need it.
type Driver struct {
	l    log15.Logger
	conn *HostConn
	reg  *Registry
	in   <-chan []byte
}

// DriverOption is an option function for Driver.
type DriverOption func(d *Driver)

// WithDriverLogger configures the logger for driver operations.
// By default, nothing will be logged.
func WithDriverLogger(l log15.Logger) DriverOption {
	return func(d *Driver) {
		d.l = l
	}
}

// NewDriver builds a driver for conn, consuming inbound datagrams from in
// (typically UDPTransport.Packets).
func NewDriver(conn *HostConn, reg *Registry, in <-chan []byte, opts ...DriverOption) *Driver {
	noopLogger := log15.New()
	noopLogger.SetHandler(log15.DiscardHandler())
	d := &Driver{
		l:    noopLogger,
		conn: conn,
		reg:  reg,
		in:   in,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run drives the connection until it dies, the context is canceled, or the
// inbound channel closes. All connection calls happen on this goroutine, so
// the single-threaded contract holds as long as nothing else touches the
// connection while Run is live.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.l.Info("driver stopping", "reason", ctx.Err())
			// Best-effort goodbye; retries would need the loop we're leaving.
			d.conn.RequestDisconnect()
			return
		case pkt, ok := <-d.in:
			if !ok {
				d.l.Info("driver stopping", "reason", "inbound channel closed")
				return
			}
			d.conn.HandleGamePacket(pkt)
		case <-ticker.C:
			d.conn.Update()
			if !d.reg.isCurrent(d.conn) {
				d.l.Info("driver stopping", "reason", "connection no longer current")
				return
			}
		}
	}
}
