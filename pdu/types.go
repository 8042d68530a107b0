package pdu

import "fmt"

// EntityID names a CFDP peer. It is serialised on the wire in 1..8
// octets (width is a per-entity configuration value, see mib.Config).
type EntityID uint64

// TransactionID is the pair (source_entity_id, sequence_number) that
// globally and uniquely names one file transfer for its lifetime.
type TransactionID struct {
	Source EntityID
	Seq    uint64
}

func (t TransactionID) String() string {
	return fmt.Sprintf("%d:%d", t.Source, t.Seq)
}

// TransmissionMode selects Class-1 (best effort) or Class-2
// (acknowledged, NAK-driven) delivery.
type TransmissionMode uint8

const (
	Acknowledged   TransmissionMode = 0 // Class 2
	Unacknowledged TransmissionMode = 1 // Class 1
)

func (m TransmissionMode) String() string {
	if m == Acknowledged {
		return "acknowledged"
	}
	return "unacknowledged"
}

// ChecksumType selects the file integrity engine negotiated for a
// transaction.
type ChecksumType uint8

const (
	ChecksumModular ChecksumType = 0
	ChecksumCRC32   ChecksumType = 1
	ChecksumCRC32C  ChecksumType = 2
	ChecksumNull    ChecksumType = 15
)

func (c ChecksumType) String() string {
	switch c {
	case ChecksumModular:
		return "modular"
	case ChecksumCRC32:
		return "crc32"
	case ChecksumCRC32C:
		return "crc32c"
	case ChecksumNull:
		return "null"
	default:
		return fmt.Sprintf("checksum(%d)", uint8(c))
	}
}

// ConditionCode is the CFDP fault/outcome vocabulary, reproduced
// bit-exact on the wire in EOF, Finished and Ack PDUs.
type ConditionCode uint8

const (
	NoError                 ConditionCode = 0
	PositiveAckLimitReached ConditionCode = 1
	KeepAliveLimitReached   ConditionCode = 2
	InvalidTransmissionMode ConditionCode = 3
	FilestoreRejection      ConditionCode = 4
	FileChecksumFailure     ConditionCode = 5
	FileSizeError           ConditionCode = 6
	NakLimitReached         ConditionCode = 7
	InactivityDetected      ConditionCode = 8
	InvalidFileStructure    ConditionCode = 9
	CheckLimitReached       ConditionCode = 10
	UnsupportedChecksumType ConditionCode = 11
	SuspendRequestReceived  ConditionCode = 14
	CancelRequestReceived   ConditionCode = 15
)

var conditionCodeNames = map[ConditionCode]string{
	NoError:                 "no_error",
	PositiveAckLimitReached: "positive_ack_limit_reached",
	KeepAliveLimitReached:   "keep_alive_limit_reached",
	InvalidTransmissionMode: "invalid_transmission_mode",
	FilestoreRejection:      "filestore_rejection",
	FileChecksumFailure:     "file_checksum_failure",
	FileSizeError:           "file_size_error",
	NakLimitReached:         "nak_limit_reached",
	InactivityDetected:      "inactivity_detected",
	InvalidFileStructure:    "invalid_file_structure",
	CheckLimitReached:       "check_limit_reached",
	UnsupportedChecksumType: "unsupported_checksum_type",
	SuspendRequestReceived:  "suspend_request_received",
	CancelRequestReceived:   "cancel_request_received",
}

func (c ConditionCode) String() string {
	if name, ok := conditionCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("condition_code(%d)", uint8(c))
}

// FileStatus reports what the receiver did with the reconstructed
// file, carried in the low 2 bits of the Finished PDU's status byte.
type FileStatus uint8

const (
	DiscardedDeliberately       FileStatus = 0
	DiscardedFilestoreRejection FileStatus = 1
	RetainedSuccessfully        FileStatus = 2
	FileStatusUnreported        FileStatus = 3
)

func (s FileStatus) String() string {
	switch s {
	case DiscardedDeliberately:
		return "discarded_deliberately"
	case DiscardedFilestoreRejection:
		return "discarded_filestore_rejection"
	case RetainedSuccessfully:
		return "retained_successfully"
	default:
		return "unreported"
	}
}

// Direction is the header's direction bit: toward the file receiver
// or back toward the original sender.
type Direction uint8

const (
	TowardReceiver Direction = 0
	TowardSender   Direction = 1
)
