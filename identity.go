package hostlink

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// The request-id counter is process-wide so that two connection attempts in
// the same process can never reuse an id against the same host. It is seeded
// once, away from the low byte values that dominate garbage datagrams, so a
// stray packet is unlikely to look like a reply to us.
var (
	requestIDMu   sync.Mutex
	requestIDNext uint8
	requestIDOnce sync.Once
)

// nextRequestID returns a fresh handshake-attempt token.
func nextRequestID() uint8 {
	requestIDOnce.Do(func() {
		requestIDNext = uint8(71 + rand.Intn(151))
	})
	requestIDMu.Lock()
	defer requestIDMu.Unlock()
	id := requestIDNext
	requestIDNext++
	return id
}

var (
	instanceIDOnce sync.Once
	instanceID     []byte
)

// processInstanceID returns the identifier sent in handshake requests so the
// host can tell retries of one client apart from a second client behind the
// same address. One per process, generated lazily.
func processInstanceID() []byte {
	instanceIDOnce.Do(func() {
		instanceID = []byte(uuid.NewString())
	})
	return instanceID
}
