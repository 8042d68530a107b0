package pdu

import (
	"errors"
	"fmt"

	"github.com/ccsds-cfdp/gocfdp/internal/wireint"
)

// ErrTruncated is returned by Decode/DecodeHeader when the input is
// shorter than the header declares, either before or after the
// variable-width entity/sequence fields are known.
var ErrTruncated = errors.New("pdu: truncated header")

// ErrUnsupportedDirective is returned when a directive PDU's first
// data-field byte does not match any known directive code. Per
// spec.md §7 this is non-fatal: callers decode the header, learn the
// PDU is a directive they don't understand, and discard it without
// terminating the owning transaction.
var ErrUnsupportedDirective = errors.New("pdu: unsupported directive code")

// PduType distinguishes a file-data PDU from a directive PDU (the
// header's type bit).
type PduType uint8

const (
	TypeFileData  PduType = 0
	TypeDirective PduType = 1
)

// DirectiveCode is the first octet of a directive PDU's data field.
type DirectiveCode uint8

const (
	DirectiveEOF       DirectiveCode = 0x04
	DirectiveFinished  DirectiveCode = 0x05
	DirectiveAck       DirectiveCode = 0x06
	DirectiveMetadata  DirectiveCode = 0x07
	DirectiveNak       DirectiveCode = 0x08
	DirectivePrompt    DirectiveCode = 0x09
	DirectiveKeepAlive DirectiveCode = 0x0C
)

// Header is the 4-octet-plus-ids common header prefixing every PDU.
type Header struct {
	Version             uint8 // 3 bits, always 1
	Type                PduType
	Direction            Direction
	Mode                TransmissionMode
	CRCPresent          bool
	LargeFile           bool
	DataFieldLength     uint16
	SegmentationControl bool
	EntityIDLength      int // octets, 1..8
	SegmentMetadataFlag bool
	SeqNumberLength     int // octets, 1..8
	SourceEntityID      EntityID
	SequenceNumber      uint64
	DestEntityID        EntityID
}

// Size returns the total encoded header length in bytes:
// 4 + 2*entity_id_length + sequence_number_length.
func (h Header) Size() int {
	return 4 + 2*h.EntityIDLength + h.SeqNumberLength
}

// Encode serialises the header. Callers must have already set
// DataFieldLength to the length of the serialised data field.
func (h Header) Encode() ([]byte, error) {
	if h.EntityIDLength < 1 || h.EntityIDLength > 8 {
		return nil, fmt.Errorf("pdu: invalid entity id length %d", h.EntityIDLength)
	}
	if h.SeqNumberLength < 1 || h.SeqNumberLength > 8 {
		return nil, fmt.Errorf("pdu: invalid sequence number length %d", h.SeqNumberLength)
	}
	buf := make([]byte, 4, h.Size())

	buf[0] = h.Version<<5 | uint8(h.Type)<<4 | uint8(h.Direction)<<3 | uint8(h.Mode)<<2 | b2u8(h.CRCPresent)<<1 | b2u8(h.LargeFile)
	buf[1] = byte(h.DataFieldLength >> 8)
	buf[2] = byte(h.DataFieldLength)
	buf[3] = b2u8(h.SegmentationControl)<<7 | uint8(h.EntityIDLength-1)<<4 | b2u8(h.SegmentMetadataFlag)<<3 | uint8(h.SeqNumberLength-1)

	var err error
	buf, err = wireint.Append(buf, uint64(h.SourceEntityID), h.EntityIDLength)
	if err != nil {
		return nil, err
	}
	buf, err = wireint.Append(buf, h.SequenceNumber, h.SeqNumberLength)
	if err != nil {
		return nil, err
	}
	buf, err = wireint.Append(buf, uint64(h.DestEntityID), h.EntityIDLength)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeHeader decodes the common header from the front of buf and
// returns it along with the number of bytes it occupied.
func DecodeHeader(buf []byte) (Header, int, error) {
	if len(buf) < 4 {
		return Header{}, 0, ErrTruncated
	}
	h := Header{
		Version:             buf[0] >> 5,
		Type:                PduType((buf[0] >> 4) & 0x01),
		Direction:           Direction((buf[0] >> 3) & 0x01),
		Mode:                TransmissionMode((buf[0] >> 2) & 0x01),
		CRCPresent:          (buf[0]>>1)&0x01 != 0,
		LargeFile:           buf[0]&0x01 != 0,
		DataFieldLength:     uint16(buf[1])<<8 | uint16(buf[2]),
		SegmentationControl: buf[3]&0x80 != 0,
		EntityIDLength:      int((buf[3]>>4)&0x07) + 1,
		SegmentMetadataFlag: buf[3]&0x08 != 0,
		SeqNumberLength:     int(buf[3] & 0x07) + 1,
	}
	total := h.Size()
	if len(buf) < total {
		return Header{}, 0, ErrTruncated
	}
	off := 4
	src, err := wireint.Get(buf[off:], h.EntityIDLength)
	if err != nil {
		return Header{}, 0, ErrTruncated
	}
	h.SourceEntityID = EntityID(src)
	off += h.EntityIDLength
	seq, err := wireint.Get(buf[off:], h.SeqNumberLength)
	if err != nil {
		return Header{}, 0, ErrTruncated
	}
	h.SequenceNumber = seq
	off += h.SeqNumberLength
	dst, err := wireint.Get(buf[off:], h.EntityIDLength)
	if err != nil {
		return Header{}, 0, ErrTruncated
	}
	h.DestEntityID = EntityID(dst)
	off += h.EntityIDLength
	return h, total, nil
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
