// Package tcp is a Transport over persistent TCP connections, one per
// peer entity, framed with a 4-byte big-endian length prefix. It is
// generalized from the teacher's pkg/can/virtual.Bus, which frames CAN
// frames the same way over a single broker connection; here each
// destination entity gets its own dialed connection, reconnected
// lazily on the next Send after a drop.
package tcp

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccsds-cfdp/gocfdp/pdu"
	"github.com/ccsds-cfdp/gocfdp/transport"
)

func init() {
	transport.Register("tcp", New)
}

// Transport is the TCP Transport implementation.
type Transport struct {
	logger    *logrus.Entry
	localAddr string
	peers     map[pdu.EntityID]string

	mu       sync.Mutex
	conns    map[string]net.Conn
	listener transport.PduListener

	ln     net.Listener
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a tcp.Transport listening on localAddr (e.g.
// ":4556") once Connect is called, with peers resolving destination
// entities to "host:port" addresses.
func New(localAddr string, peers map[pdu.EntityID]string) (transport.Transport, error) {
	return &Transport{
		logger:    logrus.WithField("transport", "tcp"),
		localAddr: localAddr,
		peers:     peers,
		conns:     make(map[string]net.Conn),
		stopCh:    make(chan struct{}),
	}, nil
}

// Connect starts listening for inbound peer connections.
func (t *Transport) Connect(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.localAddr)
	if err != nil {
		return err
	}
	t.ln = ln
	t.wg.Add(1)
	go t.acceptLoop()
	return nil
}

func (t *Transport) acceptLoop() {
	defer t.wg.Done()
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			select {
			case <-t.stopCh:
				return
			default:
				t.logger.Warnf("accept failed, stopping: %v", err)
				return
			}
		}
		t.wg.Add(1)
		go t.readLoop(conn)
	}
}

func (t *Transport) readLoop(conn net.Conn) {
	defer t.wg.Done()
	defer conn.Close()
	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		n := binary.BigEndian.Uint32(header)
		buf := make([]byte, n)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		t.mu.Lock()
		l := t.listener
		t.mu.Unlock()
		if l != nil {
			l.Handle(buf)
		}
	}
}

// Disconnect closes the listener and all peer connections.
func (t *Transport) Disconnect() error {
	close(t.stopCh)
	if t.ln != nil {
		t.ln.Close()
	}
	t.mu.Lock()
	for addr, c := range t.conns {
		c.Close()
		delete(t.conns, addr)
	}
	t.mu.Unlock()
	t.wg.Wait()
	return nil
}

func (t *Transport) dial(addr string) (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.conns[addr]; ok {
		return c, nil
	}
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	t.conns[addr] = conn
	t.wg.Add(1)
	go t.readLoop(conn)
	return conn, nil
}

// Send dials (or reuses) the connection to dst's configured address and
// writes a length-prefixed frame. A write failure drops the cached
// connection so the next Send redials.
func (t *Transport) Send(ctx context.Context, dst pdu.EntityID, buf []byte) error {
	addr, ok := t.peers[dst]
	if !ok {
		return fmt.Errorf("tcp: no address configured for entity %d", dst)
	}
	conn, err := t.dial(addr)
	if err != nil {
		return err
	}
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(buf)))
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	}
	if _, err := conn.Write(header); err != nil {
		t.dropConn(addr)
		return err
	}
	if _, err := conn.Write(buf); err != nil {
		t.dropConn(addr)
		return err
	}
	return nil
}

func (t *Transport) dropConn(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, addr)
}

// Subscribe registers the listener invoked for every inbound PDU, from
// any peer connection.
func (t *Transport) Subscribe(listener transport.PduListener) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = listener
	return nil
}
