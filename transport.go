package hostlink

import (
	"context"
	"net"
	"sync"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Sender is the outbound half of the transport: an asynchronous "send these
// bytes to that address". Implementations must not block the caller and give
// no delivery or ordering guarantee; callers treat every send as
// fire-and-forget.
type Sender interface {
	Send(data []byte, addr net.Addr)
}

// sendQueueDepth bounds the outbound queue. Past it, datagrams are dropped,
// which is exactly what the network would have done anyway.
const sendQueueDepth = 128

// maxDatagramSize is the largest inbound datagram the transport will read.
const maxDatagramSize = 65535

type datagram struct {
	data []byte
	addr net.Addr
}

// UDPTransport is a Sender backed by a UDP socket. Outbound datagrams are
// queued and written by a background goroutine so the loop driving a
// HostConn never touches the network; inbound datagrams surface on Packets
// for that same loop to consume.
type UDPTransport struct {
	l    log15.Logger
	conn *net.UDPConn

	outbound chan datagram
	inbound  chan []byte

	group  *errgroup.Group
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// TransportOption is an option function for UDPTransport.
type TransportOption func(t *UDPTransport)

// WithTransportLogger configures the logger for transport operations.
// By default, nothing will be logged.
func WithTransportLogger(l log15.Logger) TransportOption {
	return func(t *UDPTransport) {
		t.l = l
	}
}

// NewUDPTransport opens a UDP socket bound to listenAddr (":0" when empty)
// and starts the background reader and writer.
func NewUDPTransport(listenAddr string, opts ...TransportOption) (*UDPTransport, error) {
	if listenAddr == "" {
		listenAddr = ":0"
	}
	laddr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "error resolving listen address %q", listenAddr)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errors.Wrapf(err, "error binding udp socket on %q", listenAddr)
	}

	noopLogger := log15.New()
	noopLogger.SetHandler(log15.DiscardHandler())
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	t := &UDPTransport{
		l:        noopLogger,
		conn:     conn,
		outbound: make(chan datagram, sendQueueDepth),
		inbound:  make(chan []byte, sendQueueDepth),
		group:    group,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(t)
	}

	group.Go(func() error { return t.writeLoop(gctx) })
	group.Go(func() error { return t.readLoop(gctx) })
	return t, nil
}

// Send queues one datagram for delivery. It never blocks; when the queue is
// full the datagram is dropped and a diagnostic logged.
func (t *UDPTransport) Send(data []byte, addr net.Addr) {
	select {
	case t.outbound <- datagram{data: data, addr: addr}:
	default:
		t.l.Warn("outbound queue full, dropping datagram", "addr", addr, "len", len(data))
	}
}

// Packets returns the inbound datagram stream. Each element is one whole
// datagram with its own backing array.
func (t *UDPTransport) Packets() <-chan []byte {
	return t.inbound
}

// LocalAddr returns the bound socket address.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Close stops both loops and closes the socket. Safe to call more than once.
func (t *UDPTransport) Close() error {
	t.closeOnce.Do(func() {
		t.cancel()
		t.conn.Close()
		t.closeErr = t.group.Wait()
	})
	return t.closeErr
}

func (t *UDPTransport) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-t.outbound:
			if _, err := t.conn.WriteTo(d.data, d.addr); err != nil {
				// Fire-and-forget: senders already gave up any claim on
				// delivery, so a write error is only worth a log line.
				t.l.Warn("udp write failed", "addr", d.addr, "err", err)
			}
		}
	}
}

func (t *UDPTransport) readLoop(ctx context.Context) error {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.Wrap(err, "udp read failed")
		}
		pkt := append([]byte(nil), buf[:n]...)
		select {
		case t.inbound <- pkt:
		default:
			t.l.Warn("inbound queue full, dropping datagram", "len", n)
		}
	}
}
