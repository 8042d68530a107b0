// Package recv implements the receiver-side transaction state
// machine: accumulate Metadata/FileData/EOF, then run the completion
// attempt spec.md §4.5 describes step by step. It mirrors send's
// structure and is grounded the same way, on pkg/sdo/client.go's
// tick-driven, explicit-state SDOClient, generalized from "one SDO
// upload" to "one CFDP file reception".
package recv

import (
	"github.com/sirupsen/logrus"

	"github.com/ccsds-cfdp/gocfdp/filestore"
	"github.com/ccsds-cfdp/gocfdp/internal/checksum"
	"github.com/ccsds-cfdp/gocfdp/pdu"
	"github.com/ccsds-cfdp/gocfdp/segment"
)

// State is the receive transaction's lifecycle state.
type State uint8

const (
	StateInitial State = iota
	StateActive
	StateComplete
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateActive:
		return "active"
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
	Success       bool
	ConditionCode pdu.ConditionCode
	FileStatus    pdu.FileStatus
	BytesReceived uint64
}

// SendFunc emits one outbound PDU body (Nak or Finished) back toward
// the sender. As in package send, header synthesis is entity.Engine's
// job, not this package's.
type SendFunc func(body pdu.Body) error

// Config carries the subset of mib.Config a receive transaction needs.
type Config struct {
	MaxNakRetries int
}

// Transaction is one inbound file reception.
type Transaction struct {
	logger *logrus.Entry

	peer pdu.EntityID
	mode pdu.TransmissionMode
	cfg  Config
	fs   filestore.Filestore
	send SendFunc

	state State

	metadataReceived    bool
	closureRequested    bool
	checksumType        pdu.ChecksumType
	sourceFilename      string
	destinationFilename string

	segments segment.Map
	fileSize uint64

	eofReceived      bool
	expectedChecksum uint32

	bytesReceived uint64
	nakRetries    int

	result Result
}

// New constructs a receive transaction as the engine does upon seeing
// the first PDU of an unregistered transaction: peer and mode come
// from that PDU's header.
func New(logPrefix string, peer pdu.EntityID, mode pdu.TransmissionMode, cfg Config, fs filestore.Filestore, send SendFunc) *Transaction {
	return &Transaction{
		logger: logrus.WithField("recv", logPrefix),
		peer:   peer,
		mode:   mode,
		cfg:    cfg,
		fs:     fs,
		send:   send,
		state:  StateInitial,
	}
}

// State returns the transaction's current lifecycle state.
func (t *Transaction) State() State { return t.state }

// Result returns the transaction's terminal outcome; only meaningful
// once State() is StateComplete or StateCancelled.
func (t *Transaction) Result() Result { return t.result }

// FileSize returns the declared file size learned so far from
// Metadata or EOF, zero beforehand. entity.Engine uses this to pick
// the header's large_file_flag.
func (t *Transaction) FileSize() uint64 { return t.fileSize }

// Peer returns the entity id this transaction receives from.
func (t *Transaction) Peer() pdu.EntityID { return t.peer }

// NakRetries returns the number of NAK rounds sent so far, each
// counted once per attemptCompletion call that found a gap under
// Acknowledged mode. entity.Engine diffs this across RetryCompletion
// calls to report NAK-retry metrics.
func (t *Transaction) NakRetries() int { return t.nakRetries }

// HandlePdu dispatches one inbound PDU body. The first call in
// StateInitial transitions to Active before processing, per spec.md
// §4.5.
func (t *Transaction) HandlePdu(body pdu.Body) error {
	if t.state != StateInitial && t.state != StateActive {
		return nil
	}
	if t.state == StateInitial {
		t.state = StateActive
	}
	switch b := body.(type) {
	case pdu.Metadata:
		t.checksumType = b.ChecksumType
		t.sourceFilename = b.SourceFilename
		t.destinationFilename = b.DestinationFilename
		t.closureRequested = b.ClosureRequested
		t.fileSize = b.FileSize
		t.metadataReceived = true
		return nil
	case pdu.FileData:
		t.segments.Insert(b.Offset, b.Data)
		t.bytesReceived += uint64(len(b.Data))
		return nil
	case pdu.EOF:
		t.expectedChecksum = b.Checksum
		t.fileSize = b.FileSize
		t.eofReceived = true
		return t.attemptCompletion()
	default:
		// Other directives are tolerated: decoded elsewhere, ignored here.
		return nil
	}
}

// attemptCompletion runs the 7-step algorithm spec.md §4.5 describes.
// It may be re-entered after a Nak round once more FileData arrives
// and a later EOF or an engine-driven retry triggers it again.
func (t *Transaction) attemptCompletion() error {
	gaps := t.segments.Gaps(t.fileSize)

	if t.mode == pdu.Acknowledged && len(gaps) > 0 {
		requests := make([]pdu.SegmentRequest, 0, len(gaps))
		for _, g := range gaps {
			requests = append(requests, pdu.SegmentRequest{Start: g.Start, End: g.End})
		}
		if err := t.send(pdu.Nak{StartOfScope: 0, EndOfScope: t.fileSize, Requests: requests}); err != nil {
			return err
		}
		t.nakRetries++
		if t.nakRetries > t.cfg.MaxNakRetries {
			t.completeWith(pdu.NakLimitReached, pdu.FileStatusUnreported)
		}
		return nil
	}

	if t.mode == pdu.Unacknowledged && len(gaps) > 0 {
		t.completeWith(pdu.FileSizeError, pdu.FileStatusUnreported)
		return nil
	}

	assembled, err := t.segments.Assemble(t.fileSize)
	if err != nil {
		t.completeWith(pdu.FileSizeError, pdu.FileStatusUnreported)
		return nil
	}

	if t.checksumType != pdu.ChecksumNull {
		got := checksum.Of(t.checksumType, assembled)
		if got != t.expectedChecksum {
			t.completeWith(pdu.FileChecksumFailure, pdu.FileStatusUnreported)
			return nil
		}
	}

	if err := t.fs.WriteAll(t.destinationFilename, assembled); err != nil {
		t.logger.Warnf("filestore write failed: %v", err)
		t.completeWith(pdu.FilestoreRejection, pdu.DiscardedFilestoreRejection)
		return nil
	}

	if t.mode == pdu.Acknowledged || t.closureRequested {
		if err := t.send(pdu.Finished{
			ConditionCode: pdu.NoError,
			DeliveryCode:  true,
			FileStatus:    pdu.RetainedSuccessfully,
		}); err != nil {
			return err
		}
	}
	t.state = StateComplete
	t.result = Result{
		Success:       true,
		ConditionCode: pdu.NoError,
		FileStatus:    pdu.RetainedSuccessfully,
		BytesReceived: t.bytesReceived,
	}
	return nil
}

// Cancel transitions a non-terminal transaction to Cancelled.
func (t *Transaction) Cancel() bool {
	if t.state == StateComplete || t.state == StateCancelled {
		return false
	}
	t.state = StateCancelled
	t.result = Result{Success: false, ConditionCode: pdu.CancelRequestReceived, FileStatus: pdu.FileStatusUnreported, BytesReceived: t.bytesReceived}
	return true
}

// IsTerminal reports whether the transaction has reached Complete or
// Cancelled and should be dropped from the entity registry.
func (t *Transaction) IsTerminal() bool {
	return t.state == StateComplete || t.state == StateCancelled
}

// RetryCompletion re-runs the completion attempt, for use by
// entity.Engine's timer loop on each NAK-interval tick, giving another
// gap check without requiring a fresh EOF.
func (t *Transaction) RetryCompletion() error {
	if t.state != StateActive || !t.eofReceived {
		return nil
	}
	return t.attemptCompletion()
}

func (t *Transaction) completeWith(cc pdu.ConditionCode, fs pdu.FileStatus) {
	t.state = StateComplete
	t.result = Result{Success: false, ConditionCode: cc, FileStatus: fs, BytesReceived: t.bytesReceived}
}
