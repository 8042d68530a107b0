// Package udp is a Transport over a single UDP socket, one PDU per
// datagram, no reassembly — grounded the same way as transport/tcp on
// the teacher's pkg/can/virtual.Bus connect/subscribe/send shape, using
// net.PacketConn in place of a stream connection.
package udp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ccsds-cfdp/gocfdp/pdu"
	"github.com/ccsds-cfdp/gocfdp/transport"
)

func init() {
	transport.Register("udp", New)
}

// maxDatagram is the largest PDU this transport will attempt to send
// in one datagram; CFDP does not segment a PDU itself, so a too-large
// PDU is a caller configuration error, not something to fragment here.
const maxDatagram = 65507

// Transport is the UDP Transport implementation.
type Transport struct {
	logger    *logrus.Entry
	localAddr string
	peers     map[pdu.EntityID]string

	mu       sync.Mutex
	listener transport.PduListener

	conn   *net.UDPConn
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a udp.Transport bound to localAddr once Connect is
// called, with peers resolving destination entities to "host:port".
func New(localAddr string, peers map[pdu.EntityID]string) (transport.Transport, error) {
	return &Transport{
		logger:    logrus.WithField("transport", "udp"),
		localAddr: localAddr,
		peers:     peers,
		stopCh:    make(chan struct{}),
	}, nil
}

// Connect opens the listening UDP socket.
func (t *Transport) Connect(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", t.localAddr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	t.conn = conn
	t.wg.Add(1)
	go t.readLoop()
	return nil
}

func (t *Transport) readLoop() {
	defer t.wg.Done()
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.stopCh:
				return
			default:
				t.logger.Warnf("udp read failed, stopping: %v", err)
				return
			}
		}
		cp := append([]byte(nil), buf[:n]...)
		t.mu.Lock()
		l := t.listener
		t.mu.Unlock()
		if l != nil {
			l.Handle(cp)
		}
	}
}

// Disconnect closes the socket.
func (t *Transport) Disconnect() error {
	close(t.stopCh)
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.wg.Wait()
	return nil
}

// Send writes buf as a single datagram to dst's configured address.
func (t *Transport) Send(ctx context.Context, dst pdu.EntityID, buf []byte) error {
	if len(buf) > maxDatagram {
		return fmt.Errorf("udp: pdu too large for one datagram (%d bytes)", len(buf))
	}
	addrStr, ok := t.peers[dst]
	if !ok {
		return fmt.Errorf("udp: no address configured for entity %d", dst)
	}
	addr, err := net.ResolveUDPAddr("udp", addrStr)
	if err != nil {
		return err
	}
	_, err = t.conn.WriteToUDP(buf, addr)
	return err
}

// Subscribe registers the listener invoked for every inbound datagram.
func (t *Transport) Subscribe(listener transport.PduListener) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = listener
	return nil
}
