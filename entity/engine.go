// Package entity implements the per-entity engine: the transaction
// registry, sequence numbering, PDU routing, header synthesis, and the
// timer loop driving NAK-interval retries and the inactivity timeout
// (no ACK timer is run). It generalizes the
// teacher's bus_manager.go (a mutex-guarded, id-indexed subscriber
// registry dispatching inbound frames) and pkg/node/controller.go (a
// context-cancellable ticker goroutine) from CAN ids and NMT states to
// CFDP transaction ids and transfer state.
package entity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccsds-cfdp/gocfdp/filestore"
	"github.com/ccsds-cfdp/gocfdp/mib"
	"github.com/ccsds-cfdp/gocfdp/pdu"
	"github.com/ccsds-cfdp/gocfdp/recv"
	"github.com/ccsds-cfdp/gocfdp/send"
	"github.com/ccsds-cfdp/gocfdp/transport"
)

// TransactionStatus is the coarse status GetTransactionStatus reports,
// per spec.md §4.6.
type TransactionStatus uint8

const (
	StatusUndefined TransactionStatus = iota
	StatusActive
	StatusTerminated
	StatusUnrecognized
)

// TransactionResult mirrors send.Result/recv.Result in a
// role-independent shape for the TransactionCompleted notification.
type TransactionResult struct {
	Success          bool
	ConditionCode    pdu.ConditionCode
	FileStatus       pdu.FileStatus
	BytesTransferred uint64
}

// PutRequest is the application-facing request to send a file,
// spec.md §6's recognised Put options.
type PutRequest struct {
	DestinationEntityID pdu.EntityID
	SourceFilename      string
	DestinationFilename string
	TransmissionMode    *pdu.TransmissionMode
	ChecksumType        *pdu.ChecksumType
	ClosureRequested    bool
}

// Observers are the engine's observation points. Any may be nil.
type Observers struct {
	OnTransactionCreated   func(id pdu.TransactionID)
	OnTransactionCompleted func(id pdu.TransactionID, result TransactionResult)
	OnPduReady             func(dest pdu.EntityID, buf []byte)
	OnBytesSent            func(n uint64)
	OnBytesReceived        func(n uint64)
	OnNakRetry             func()
}

type role uint8

const (
	roleSend role = iota
	roleRecv
)

// txEntry is the registry's value type: exactly one of send/recv is
// non-nil, matching which role constructed it.
type txEntry struct {
	role         role
	send         *send.Transaction
	recv         *recv.Transaction
	source       pdu.EntityID
	destination  pdu.EntityID
	mode         pdu.TransmissionMode
	lastActivity time.Time
}

func (e *txEntry) isTerminal() bool {
	if e.role == roleSend {
		return e.send.IsTerminal()
	}
	return e.recv.IsTerminal()
}

// Engine is one CFDP entity: its MIB-derived configuration, a
// filestore, a transport, and the live transaction registry.
type Engine struct {
	cfg       *mib.Config
	fs        filestore.Filestore
	transport transport.Transport
	logger    *logrus.Entry
	observers Observers

	mu  sync.Mutex
	txs map[pdu.TransactionID]*txEntry
	seq uint64

	wg sync.WaitGroup
}

// New constructs an Engine bound to cfg, fs and a connected transport.
// Callers should call SetObservers before Run/Put/ProcessPdu if they
// want notifications, and must call transport.Subscribe(engine's
// ProcessPdu-backed listener) themselves — see cmd/cfdpd for the
// wiring.
func New(cfg *mib.Config, fs filestore.Filestore, tr transport.Transport) *Engine {
	return &Engine{
		cfg:       cfg,
		fs:        fs,
		transport: tr,
		logger:    logrus.WithField("entity", cfg.EntityID),
		txs:       make(map[pdu.TransactionID]*txEntry),
	}
}

// SetObservers installs the notification callbacks.
func (e *Engine) SetObservers(o Observers) { e.observers = o }

// PduListener returns the transport.PduListener this engine's
// ProcessPdu should be subscribed as.
func (e *Engine) PduListener() transport.PduListenerFunc {
	return func(buf []byte) {
		if err := e.ProcessPdu(buf); err != nil {
			e.logger.Warnf("ProcessPdu: %v", err)
		}
	}
}

// Put starts a new outbound transfer. It resolves the effective mode,
// checksum type and segment length per spec.md §4.4's priority order,
// registers the transaction, and invokes Start.
func (e *Engine) Put(req PutRequest) (pdu.TransactionID, error) {
	mode := e.cfg.TransmissionModeFor(req.DestinationEntityID)
	if req.TransmissionMode != nil {
		mode = *req.TransmissionMode
	}
	checksumType := e.cfg.ChecksumTypeFor(req.DestinationEntityID)
	if req.ChecksumType != nil {
		checksumType = *req.ChecksumType
	}
	maxSegment := e.cfg.MaxFileSegmentLength
	if remoteMax := e.cfg.MaxFileSegmentLengthFor(req.DestinationEntityID); remoteMax < maxSegment {
		maxSegment = remoteMax
	}

	seq := atomic.AddUint64(&e.seq, 1)
	id := pdu.TransactionID{Source: e.cfg.EntityID, Seq: seq}

	tx := send.New(id.String(), req.DestinationEntityID, req.SourceFilename, req.DestinationFilename, req.ClosureRequested,
		send.Config{
			Mode:                 mode,
			ChecksumType:         checksumType,
			MaxFileSegmentLength: maxSegment,
			MaxNakRetries:        e.cfg.MaxNakRetries,
		}, e.fs, e.makeSendFunc(id, roleSend))

	entry := &txEntry{role: roleSend, send: tx, source: id.Source, destination: req.DestinationEntityID, mode: mode, lastActivity: time.Now()}
	e.mu.Lock()
	e.txs[id] = entry
	e.mu.Unlock()
	e.notifyCreated(id)

	if err := tx.Start(); err != nil {
		return id, err
	}
	e.reapIfTerminal(id, entry)
	return id, nil
}

// ProcessPdu decodes one inbound PDU buffer and routes it to the
// owning transaction, constructing a new receive transaction if none
// is yet registered and the PDU flows toward the receiver.
func (e *Engine) ProcessPdu(buf []byte) error {
	h, body, err := pdu.Decode(buf)
	if err != nil {
		e.logger.Debugf("decode: %v", err)
		return nil // decode errors are discarded, never fatal (spec.md §7)
	}
	if e.observers.OnBytesReceived != nil {
		e.observers.OnBytesReceived(uint64(len(buf)))
	}
	id := pdu.TransactionID{Source: h.SourceEntityID, Seq: h.SequenceNumber}

	e.mu.Lock()
	entry, ok := e.txs[id]
	created := false
	if !ok {
		if h.Direction != pdu.TowardReceiver {
			e.mu.Unlock()
			return nil // unknown transaction, toward-sender PDU: dropped
		}
		tx := recv.New(id.String(), h.SourceEntityID, h.Mode, recv.Config{MaxNakRetries: e.cfg.MaxNakRetries}, e.fs, e.makeSendFunc(id, roleRecv))
		entry = &txEntry{role: roleRecv, recv: tx, source: h.SourceEntityID, destination: h.DestEntityID, mode: h.Mode, lastActivity: time.Now()}
		e.txs[id] = entry
		created = true
	}
	entry.lastActivity = time.Now()
	e.mu.Unlock()

	if created {
		e.notifyCreated(id)
	}

	if entry.role == roleSend {
		if err := entry.send.HandlePdu(body); err != nil {
			return err
		}
	} else {
		if err := entry.recv.HandlePdu(body); err != nil {
			return err
		}
	}
	e.reapIfTerminal(id, entry)
	return nil
}

// GetTransactionStatus reports a snapshot status for id.
func (e *Engine) GetTransactionStatus(id pdu.TransactionID) TransactionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.txs[id]
	if !ok {
		return StatusUnrecognized
	}
	if entry.isTerminal() {
		return StatusTerminated
	}
	return StatusActive
}

// GetActiveTransactions snapshots the live transaction ids.
func (e *Engine) GetActiveTransactions() []pdu.TransactionID {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]pdu.TransactionID, 0, len(e.txs))
	for id := range e.txs {
		ids = append(ids, id)
	}
	return ids
}

// Cancel forwards to the addressed transaction; returns false if
// absent.
func (e *Engine) Cancel(id pdu.TransactionID) bool {
	e.mu.Lock()
	entry, ok := e.txs[id]
	e.mu.Unlock()
	if !ok {
		return false
	}
	var cancelled bool
	if entry.role == roleSend {
		cancelled = entry.send.Cancel()
	} else {
		cancelled = entry.recv.Cancel()
	}
	e.reapIfTerminal(id, entry)
	return cancelled
}

// Suspend forwards to the addressed send transaction; returns false if
// absent or not applicable (recv transactions have no Suspend/Resume
// in this spec).
func (e *Engine) Suspend(id pdu.TransactionID) bool {
	e.mu.Lock()
	entry, ok := e.txs[id]
	e.mu.Unlock()
	if !ok || entry.role != roleSend {
		return false
	}
	return entry.send.Suspend()
}

// Resume forwards to the addressed send transaction; returns false if
// absent or not applicable.
func (e *Engine) Resume(id pdu.TransactionID) bool {
	e.mu.Lock()
	entry, ok := e.txs[id]
	e.mu.Unlock()
	if !ok || entry.role != roleSend {
		return false
	}
	return entry.send.Resume()
}

// Run drives the entity's timer loop until ctx is cancelled: every
// tick it re-attempts completion on receive transactions awaiting a
// NAK round, and reaps any transaction the inactivity timeout has
// starved. This is the generalisation of pkg/node/controller.go's
// background ticker loop from NMT/PDO processing to CFDP timers.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.NakTimeout)
	e.wg.Add(1)
	defer e.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	e.mu.Lock()
	type item struct {
		id    pdu.TransactionID
		entry *txEntry
	}
	var toRetry, toReap []item
	now := time.Now()
	for id, entry := range e.txs {
		if now.Sub(entry.lastActivity) > e.cfg.InactivityTimeout {
			toReap = append(toReap, item{id, entry})
			continue
		}
		if entry.role == roleRecv {
			toRetry = append(toRetry, item{id, entry})
		}
	}
	e.mu.Unlock()

	for _, it := range toRetry {
		before := it.entry.recv.NakRetries()
		if err := it.entry.recv.RetryCompletion(); err != nil {
			e.logger.Warnf("retry completion: %v", err)
		}
		if it.entry.recv.NakRetries() > before && e.observers.OnNakRetry != nil {
			e.observers.OnNakRetry()
		}
		e.reapIfTerminal(it.id, it.entry)
	}
	for _, it := range toReap {
		if it.entry.role == roleSend {
			it.entry.send.Cancel()
		} else {
			it.entry.recv.Cancel()
		}
		e.reapIfTerminal(it.id, it.entry)
	}
}

// Stop cancels every live transaction, matching spec.md §5's teardown
// requirement, and waits for Run to exit. Callers using Run must
// cancel its context before calling Stop, or wg.Wait below blocks
// forever.
func (e *Engine) Stop() {
	e.mu.Lock()
	ids := make([]pdu.TransactionID, 0, len(e.txs))
	for id := range e.txs {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		e.Cancel(id)
	}
	e.wg.Wait()
}

func (e *Engine) reapIfTerminal(id pdu.TransactionID, entry *txEntry) {
	if !entry.isTerminal() {
		return
	}
	e.mu.Lock()
	if current, ok := e.txs[id]; ok && current == entry {
		delete(e.txs, id)
	}
	e.mu.Unlock()

	var result TransactionResult
	if entry.role == roleSend {
		r := entry.send.Result()
		result = TransactionResult{r.Success, r.ConditionCode, r.FileStatus, r.BytesTransferred}
	} else {
		r := entry.recv.Result()
		result = TransactionResult{r.Success, r.ConditionCode, r.FileStatus, r.BytesReceived}
	}
	if e.observers.OnTransactionCompleted != nil {
		e.observers.OnTransactionCompleted(id, result)
	}
}

func (e *Engine) notifyCreated(id pdu.TransactionID) {
	if e.observers.OnTransactionCreated != nil {
		e.observers.OnTransactionCreated(id)
	}
}

// makeSendFunc builds the send callback a transaction invokes to hand
// off one PDU body. It synthesizes the header per spec.md §4.6:
// version 1, source/destination entity id pinned to the transaction's
// roles (unaffected by which direction a given PDU actually travels),
// direction derived from whether this entity is the transaction's
// source or destination, mode fixed to the transaction's negotiated
// mode (entry.mode, resolved once at Put/creation time and never
// re-derived from config), crc_present from config, large_file_flag
// from the transaction's known file size, and widths from config. The
// encoded bytes are forwarded to the transport (addressed to whichever
// of the two transaction entities is NOT this one) and published to
// the OnPduReady observer.
func (e *Engine) makeSendFunc(id pdu.TransactionID, r role) func(pdu.Body) error {
	return func(body pdu.Body) error {
		e.mu.Lock()
		entry := e.txs[id]
		e.mu.Unlock()
		if entry == nil {
			return fmt.Errorf("entity: send callback invoked after %s left the registry", id)
		}

		direction := pdu.TowardReceiver
		wireDest := entry.destination
		var fileSize uint64
		if r == roleSend {
			fileSize = entry.send.FileSize()
		} else {
			direction = pdu.TowardSender
			wireDest = entry.source
			fileSize = entry.recv.FileSize()
		}

		h := pdu.Header{
			Version:         1,
			Direction:       direction,
			Mode:            entry.mode,
			CRCPresent:      e.cfg.UseCRC,
			LargeFile:       fileSize > 0xFFFFFFFF,
			EntityIDLength:  e.cfg.EntityIDLength,
			SeqNumberLength: e.cfg.SequenceNumberLength,
			SourceEntityID:  entry.source,
			SequenceNumber:  id.Seq,
			DestEntityID:    entry.destination,
		}
		buf, err := pdu.Encode(h, body)
		if err != nil {
			return fmt.Errorf("entity: encode: %w", err)
		}
		if e.transport != nil {
			if err := e.transport.Send(context.Background(), wireDest, buf); err != nil {
				return fmt.Errorf("entity: send: %w", err)
			}
		}
		if e.observers.OnPduReady != nil {
			e.observers.OnPduReady(wireDest, buf)
		}
		if e.observers.OnBytesSent != nil {
			e.observers.OnBytesSent(uint64(len(buf)))
		}
		return nil
	}
}
