// Package transport is the pluggable capability an entity.Engine uses
// to move PDU byte buffers to and from its peers. It generalizes the
// teacher's pkg/can Bus/FrameListener pair from a flat 11-bit CAN id
// space to CFDP's EntityID -> network address resolution.
package transport

import (
	"context"
	"fmt"

	"github.com/ccsds-cfdp/gocfdp/pdu"
)

// PduListener receives every inbound PDU a Transport decodes off the
// wire, still as an undecoded byte buffer — decoding is entity.Engine's
// job, the same separation the teacher keeps between Bus.Subscribe and
// the node's own frame handling.
type PduListener interface {
	Handle(buf []byte)
}

// PduListenerFunc adapts a plain function to PduListener.
type PduListenerFunc func(buf []byte)

func (f PduListenerFunc) Handle(buf []byte) { f(buf) }

// Transport is the narrow external contract spec.md §6 describes.
// entity.Engine does not serialise its calls to Send: Put, ProcessPdu
// and the timer loop each call it from their own goroutine.
type Transport interface {
	// Connect establishes whatever is needed to reach peers (dial,
	// listen, or both, depending on the implementation).
	Connect(ctx context.Context) error
	// Disconnect tears down the transport and stops delivering to any
	// subscribed listener.
	Disconnect() error
	// Send delivers buf to the peer named by dst. dst resolution
	// (EntityID -> network address) is configured on construction from
	// mib.Config.
	Send(ctx context.Context, dst pdu.EntityID, buf []byte) error
	// Subscribe registers the listener invoked for every inbound PDU.
	// Only one listener is kept; a later call replaces the previous one,
	// matching the teacher's Bus.Subscribe.
	Subscribe(listener PduListener) error
}

// NewTransportFunc constructs a Transport bound to the given local
// address and EntityID->address peer table.
type NewTransportFunc func(localAddr string, peers map[pdu.EntityID]string) (Transport, error)

var registry = make(map[string]NewTransportFunc)

// Register makes a transport implementation available to New under
// the given name. Implementations call this from an init() function,
// the same convention as the teacher's can.RegisterInterface.
func Register(name string, fn NewTransportFunc) {
	registry[name] = fn
}

// New constructs a registered transport by name ("tcp", "udp",
// "loopback").
func New(name, localAddr string, peers map[pdu.EntityID]string) (Transport, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("transport: unknown transport %q", name)
	}
	return fn(localAddr, peers)
}
