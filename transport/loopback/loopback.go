// Package loopback is an in-process Transport with no real socket,
// directly grounded on the teacher's pkg/can/virtual: a small shared
// broker keyed by address lets independently-constructed Bus values
// find each other, the same role virtual.go's TCP broker server plays,
// minus the network hop. cfdpd can select it as transport "loopback";
// entity.Engine's tests use their own recording fake transport instead.
package loopback

import (
	"context"
	"fmt"
	"sync"

	"github.com/ccsds-cfdp/gocfdp/pdu"
	"github.com/ccsds-cfdp/gocfdp/transport"
)

func init() {
	transport.Register("loopback", New)
}

var (
	brokerMu sync.Mutex
	brokers  = map[string]*Bus{}
)

// Bus is the loopback Transport implementation.
type Bus struct {
	localAddr string
	peers     map[pdu.EntityID]string

	mu       sync.Mutex
	listener transport.PduListener
}

// New constructs a loopback Bus. localAddr is an arbitrary name other
// loopback buses address this one by in their peers table — it need
// not look like a network address.
func New(localAddr string, peers map[pdu.EntityID]string) (transport.Transport, error) {
	return &Bus{localAddr: localAddr, peers: peers}, nil
}

// Connect registers this bus under its localAddr so peers can reach it.
func (b *Bus) Connect(ctx context.Context) error {
	brokerMu.Lock()
	defer brokerMu.Unlock()
	brokers[b.localAddr] = b
	return nil
}

// Disconnect removes this bus from the broker; further sends to it
// fail until Connect is called again.
func (b *Bus) Disconnect() error {
	brokerMu.Lock()
	defer brokerMu.Unlock()
	delete(brokers, b.localAddr)
	return nil
}

// Send looks dst up in the peers table, finds the matching bus in the
// broker, and hands it a copy of buf asynchronously.
func (b *Bus) Send(ctx context.Context, dst pdu.EntityID, buf []byte) error {
	addr, ok := b.peers[dst]
	if !ok {
		return fmt.Errorf("loopback: no address configured for entity %d", dst)
	}
	brokerMu.Lock()
	peer, ok := brokers[addr]
	brokerMu.Unlock()
	if !ok {
		return fmt.Errorf("loopback: peer %q not connected", addr)
	}
	cp := append([]byte(nil), buf...)
	go peer.deliver(cp)
	return nil
}

func (b *Bus) deliver(buf []byte) {
	b.mu.Lock()
	l := b.listener
	b.mu.Unlock()
	if l != nil {
		l.Handle(buf)
	}
}

// Subscribe registers the listener for inbound PDUs.
func (b *Bus) Subscribe(listener transport.PduListener) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listener = listener
	return nil
}
