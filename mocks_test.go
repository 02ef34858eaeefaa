package hostlink

import (
	"net"
	"time"
)

type mockSender struct {
	sent []sentPacket
}

type sentPacket struct {
	data []byte
	addr net.Addr
}

func (m *mockSender) Send(data []byte, addr net.Addr) {
	m.sent = append(m.sent, sentPacket{data: append([]byte(nil), data...), addr: addr})
}

// taggedPackets returns the packets whose first byte is tag, in send order.
func (m *mockSender) taggedPackets(tag byte) [][]byte {
	var out [][]byte
	for _, p := range m.sent {
		if len(p.data) > 0 && p.data[0] == tag {
			out = append(out, p.data)
		}
	}
	return out
}

type mockRegistry struct {
	currentOK bool
	progress  bool
	lostCount int
	notices   []Notice
}

func (m *mockRegistry) isCurrent(c *HostConn) bool { return m.currentOK }

func (m *mockRegistry) connectionLost(c *HostConn) {
	m.lostCount++
	// The real registry marks the dropped connection inert; the mock has to
	// do the same for post-death behavior to be representative.
	c.Close()
}

func (m *mockRegistry) showConnectProgress() bool { return m.progress }

func (m *mockRegistry) notice(n Notice) { m.notices = append(m.notices, n) }

type mockSession struct {
	canCommunicate bool
	updates        int
	messages       [][]byte
	errorMsgs      []string
}

func (m *mockSession) Update(time.Time) { m.updates++ }

func (m *mockSession) HandleMessage(data []byte) {
	m.messages = append(m.messages, append([]byte(nil), data...))
}

func (m *mockSession) ReportError(msg string) { m.errorMsgs = append(m.errorMsgs, msg) }

func (m *mockSession) CanCommunicate() bool { return m.canCommunicate }
