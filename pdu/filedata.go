package pdu

import "github.com/ccsds-cfdp/gocfdp/internal/wireint"

// RecordContinuation is the 2-bit record-continuation state carried in
// an optional segment-metadata block. CFDP segmentation-control record
// boundaries are out of behavioural scope (spec.md §1): gocfdp decodes
// and re-encodes this field bit-exact but never inspects it.
type RecordContinuation uint8

const (
	ContinuationNotFirstNotLast RecordContinuation = 0
	ContinuationFirst           RecordContinuation = 1
	ContinuationLast            RecordContinuation = 2
	ContinuationFirstAndLast    RecordContinuation = 3
)

// FileData carries one contiguous range of file bytes at a given
// offset. SegmentMetadata is only present/valid when the header's
// SegmentMetadataFlag is set.
type FileData struct {
	HasSegmentMetadata bool
	Continuation       RecordContinuation
	SegmentMetadata    []byte
	Offset             uint64
	Data               []byte
}

func (FileData) directive() (DirectiveCode, bool) { return 0, false }

func (f FileData) encodeField(largeFile bool) ([]byte, error) {
	buf := make([]byte, 0, 9+len(f.SegmentMetadata)+len(f.Data))
	if f.HasSegmentMetadata {
		if len(f.SegmentMetadata) > 0x3F {
			return nil, errSegmentMetadataTooLong
		}
		buf = append(buf, uint8(f.Continuation)<<6|uint8(len(f.SegmentMetadata)))
		buf = append(buf, f.SegmentMetadata...)
	}
	var err error
	buf, err = wireint.Append(buf, f.Offset, wireint.SizeWidth(largeFile))
	if err != nil {
		return nil, err
	}
	buf = append(buf, f.Data...)
	return buf, nil
}

func decodeFileData(h Header, field []byte) (FileData, error) {
	f := FileData{HasSegmentMetadata: h.SegmentMetadataFlag}
	off := 0
	if f.HasSegmentMetadata {
		if len(field) < 1 {
			return FileData{}, ErrTruncated
		}
		f.Continuation = RecordContinuation(field[0] >> 6)
		metaLen := int(field[0] & 0x3F)
		if len(field) < 1+metaLen {
			return FileData{}, ErrTruncated
		}
		f.SegmentMetadata = append([]byte{}, field[1:1+metaLen]...)
		off = 1 + metaLen
	}
	sizeWidth := wireint.SizeWidth(h.LargeFile)
	if len(field) < off+sizeWidth {
		return FileData{}, ErrTruncated
	}
	offset, err := wireint.Get(field[off:], sizeWidth)
	if err != nil {
		return FileData{}, ErrTruncated
	}
	f.Offset = offset
	off += sizeWidth
	f.Data = append([]byte{}, field[off:]...)
	return f, nil
}

type tooLongError string

func (e tooLongError) Error() string { return string(e) }

var errSegmentMetadataTooLong = tooLongError("pdu: segment metadata too long")
