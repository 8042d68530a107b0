// Package send implements the sender-side transaction state machine:
// read a file, emit Metadata/FileData/EOF, then (Class 2) answer NAKs
// and close out on Finished. It is grounded on pkg/sdo/client.go's
// SDOClient — an explicit state enum and a Handle method consuming
// inbound responses, generalized from one SDO download/upload to a
// CFDP file transfer. The send transaction runs no timer of its own.
package send

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ccsds-cfdp/gocfdp/filestore"
	"github.com/ccsds-cfdp/gocfdp/internal/checksum"
	"github.com/ccsds-cfdp/gocfdp/pdu"
)

// State is the send transaction's lifecycle state.
type State uint8

const (
	StateInitial State = iota
	StateActive
	StateSuspended
	StateComplete
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateComplete:
		return "complete"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the outcome an entity.Engine notification carries once a
// transaction reaches Complete or Cancelled.
type Result struct {
	Success          bool
	ConditionCode    pdu.ConditionCode
	FileStatus       pdu.FileStatus
	BytesTransferred uint64
}

// SendFunc emits one outbound PDU body for this transaction. The
// caller (entity.Engine) owns header synthesis — version, direction,
// widths, source/sequence/destination — per spec.md §4.6, keeping this
// package's state machine free of wire-header detail.
type SendFunc func(body pdu.Body) error

// Config carries the subset of mib.Config a send transaction needs,
// already resolved to this transaction's effective values (request
// override, then per-remote MIB entry, then entity default — spec.md
// §4.4's priority order is resolved by entity.Engine before
// construction).
type Config struct {
	Mode                 pdu.TransmissionMode
	ChecksumType         pdu.ChecksumType
	MaxFileSegmentLength int
	MaxNakRetries        int
}

// Transaction is one outbound file transfer.
type Transaction struct {
	logger *logrus.Entry

	peer                pdu.EntityID
	sourceFilename      string
	destinationFilename string
	closureRequested    bool
	cfg                 Config
	fs                  filestore.Filestore
	send                SendFunc

	state State

	fileData []byte
	fileSize uint64
	fileCRC  uint32

	bytesSent  uint64
	nakRetries int
	eofAcked   bool

	result Result
}

// New constructs a send transaction ready for Start. closureRequested
// is the caller's raw request flag (entity.Engine passes it unchanged);
// New ORs it with "mode is Acknowledged".
func New(logPrefix string, peer pdu.EntityID, sourceFilename, destinationFilename string, closureRequested bool, cfg Config, fs filestore.Filestore, send SendFunc) *Transaction {
	return &Transaction{
		logger:              logrus.WithField("send", logPrefix),
		peer:                peer,
		sourceFilename:      sourceFilename,
		destinationFilename: destinationFilename,
		closureRequested:    closureRequested || cfg.Mode == pdu.Acknowledged,
		cfg:                 cfg,
		fs:                  fs,
		send:                send,
		state:               StateInitial,
	}
}

// State returns the transaction's current lifecycle state.
func (t *Transaction) State() State { return t.state }

// Result returns the transaction's terminal outcome; only meaningful
// once State() is StateComplete or StateCancelled.
func (t *Transaction) Result() Result { return t.result }

// FileSize returns the source file's length once Start has read it,
// zero beforehand. entity.Engine uses this to pick the header's
// large_file_flag.
func (t *Transaction) FileSize() uint64 { return t.fileSize }

// Peer returns the destination entity id this transaction sends to.
func (t *Transaction) Peer() pdu.EntityID { return t.peer }

// Start reads the source file, computes its checksum, and emits
// Metadata, the FileData sequence, and EOF. Class 1 completes
// immediately; Class 2 remains Active awaiting NAK/Finished.
func (t *Transaction) Start() error {
	if t.state != StateInitial {
		return fmt.Errorf("send: Start called in state %s", t.state)
	}
	t.state = StateActive

	data, err := t.fs.ReadAll(t.sourceFilename)
	if err != nil {
		t.logger.Warnf("filestore read failed: %v", err)
		t.completeWith(pdu.FilestoreRejection, pdu.FileStatusUnreported)
		return nil
	}
	t.fileData = data
	t.fileSize = uint64(len(data))
	t.fileCRC = checksum.Of(t.cfg.ChecksumType, data)

	if err := t.send(pdu.Metadata{
		ClosureRequested:    t.closureRequested,
		ChecksumType:        t.cfg.ChecksumType,
		FileSize:            t.fileSize,
		SourceFilename:      t.sourceFilename,
		DestinationFilename: t.destinationFilename,
	}); err != nil {
		return err
	}

	maxSegment := t.cfg.MaxFileSegmentLength
	if maxSegment <= 0 {
		maxSegment = 1024
	}
	for offset := uint64(0); offset < t.fileSize; offset += uint64(maxSegment) {
		end := offset + uint64(maxSegment)
		if end > t.fileSize {
			end = t.fileSize
		}
		if err := t.send(pdu.FileData{Offset: offset, Data: t.fileData[offset:end]}); err != nil {
			return err
		}
		t.bytesSent += end - offset
	}

	if err := t.send(pdu.EOF{
		ConditionCode: pdu.NoError,
		Checksum:      t.fileCRC,
		FileSize:      t.fileSize,
	}); err != nil {
		return err
	}

	if t.cfg.Mode == pdu.Unacknowledged {
		t.completeSuccess()
	}
	return nil
}

// HandlePdu dispatches one inbound directive PDU body to the Class-2
// handshake. Non-directive (FileData) PDUs are ignored per spec.md
// §4.4; a suspended or terminal transaction ignores everything.
func (t *Transaction) HandlePdu(body pdu.Body) error {
	if t.state != StateActive {
		return nil
	}
	switch b := body.(type) {
	case pdu.Nak:
		return t.handleNak(b)
	case pdu.Ack:
		if b.AcknowledgedDirective == pdu.DirectiveEOF {
			t.eofAcked = true
		}
		return nil
	case pdu.Finished:
		return t.handleFinished(b)
	default:
		return nil
	}
}

func (t *Transaction) handleNak(n pdu.Nak) error {
	for _, r := range n.Requests {
		if r.End > t.fileSize {
			continue // straddles EOF, silently skipped
		}
		if r.Start >= r.End || r.End > uint64(len(t.fileData)) {
			continue
		}
		if err := t.send(pdu.FileData{Offset: r.Start, Data: t.fileData[r.Start:r.End]}); err != nil {
			return err
		}
	}
	t.nakRetries++
	if t.nakRetries > t.cfg.MaxNakRetries {
		t.completeWith(pdu.NakLimitReached, pdu.FileStatusUnreported)
	}
	return nil
}

func (t *Transaction) handleFinished(f pdu.Finished) error {
	if err := t.send(pdu.Ack{
		AcknowledgedDirective: pdu.DirectiveFinished,
		Subtype:               pdu.AckSubtypeFinished,
		ConditionCode:         f.ConditionCode,
		TransactionStatus:     pdu.TransactionTerminated,
	}); err != nil {
		return err
	}
	t.state = StateComplete
	t.result = Result{
		Success:          f.ConditionCode == pdu.NoError,
		ConditionCode:    f.ConditionCode,
		FileStatus:       f.FileStatus,
		BytesTransferred: t.bytesSent,
	}
	return nil
}

// Cancel transitions a non-terminal transaction to Cancelled.
func (t *Transaction) Cancel() bool {
	if t.state == StateComplete || t.state == StateCancelled {
		return false
	}
	t.state = StateCancelled
	t.result = Result{Success: false, ConditionCode: pdu.CancelRequestReceived, FileStatus: pdu.FileStatusUnreported, BytesTransferred: t.bytesSent}
	return true
}

// Suspend inhibits further emission; a no-op outside StateActive.
func (t *Transaction) Suspend() bool {
	if t.state != StateActive {
		return false
	}
	t.state = StateSuspended
	return true
}

// Resume reverses Suspend; a no-op outside StateSuspended.
func (t *Transaction) Resume() bool {
	if t.state != StateSuspended {
		return false
	}
	t.state = StateActive
	return true
}

// IsTerminal reports whether the transaction has reached Complete or
// Cancelled and should be dropped from the entity registry.
func (t *Transaction) IsTerminal() bool {
	return t.state == StateComplete || t.state == StateCancelled
}

func (t *Transaction) completeSuccess() {
	t.state = StateComplete
	t.result = Result{
		Success:          true,
		ConditionCode:    pdu.NoError,
		FileStatus:       pdu.FileStatusUnreported,
		BytesTransferred: t.fileSize,
	}
}

func (t *Transaction) completeWith(cc pdu.ConditionCode, fs pdu.FileStatus) {
	t.state = StateComplete
	t.result = Result{Success: false, ConditionCode: cc, FileStatus: fs, BytesTransferred: t.bytesSent}
}
