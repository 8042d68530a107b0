package pdu

import "github.com/ccsds-cfdp/gocfdp/internal/wireint"

// EOF is the transfer closer: final condition code, file checksum and
// size, and — on a faulted EOF — the entity id that detected the
// fault. FaultEntityIDWidth must be set to the negotiated entity id
// octet width (mib.Config.EntityIDLength) whenever FaultEntityID is
// non-nil; Decode fills it in from whatever bytes remain.
type EOF struct {
	ConditionCode      ConditionCode
	Checksum           uint32
	FileSize           uint64
	FaultEntityID      *EntityID
	FaultEntityIDWidth int
}

func (EOF) directive() (DirectiveCode, bool) { return DirectiveEOF, true }

func (e EOF) encodeField(largeFile bool) ([]byte, error) {
	buf := make([]byte, 0, 9+8)
	buf = append(buf, uint8(e.ConditionCode)<<4)
	buf = append(buf, byte(e.Checksum>>24), byte(e.Checksum>>16), byte(e.Checksum>>8), byte(e.Checksum))
	var err error
	buf, err = wireint.Append(buf, e.FileSize, wireint.SizeWidth(largeFile))
	if err != nil {
		return nil, err
	}
	if e.ConditionCode != NoError && e.FaultEntityID != nil {
		width := e.FaultEntityIDWidth
		if width == 0 {
			width = 1
		}
		buf, err = wireint.Append(buf, uint64(*e.FaultEntityID), width)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func decodeEOF(h Header, field []byte) (EOF, error) {
	if len(field) < 5 {
		return EOF{}, ErrTruncated
	}
	e := EOF{ConditionCode: ConditionCode(field[0] >> 4)}
	e.Checksum = uint32(field[1])<<24 | uint32(field[2])<<16 | uint32(field[3])<<8 | uint32(field[4])
	off := 5
	sizeWidth := wireint.SizeWidth(h.LargeFile)
	if len(field) < off+sizeWidth {
		return EOF{}, ErrTruncated
	}
	fileSize, err := wireint.Get(field[off:], sizeWidth)
	if err != nil {
		return EOF{}, ErrTruncated
	}
	e.FileSize = fileSize
	off += sizeWidth
	if e.ConditionCode != NoError && len(field) > off {
		width := len(field) - off
		if width > 8 {
			width = 8
		}
		id, err := wireint.Get(field[off:off+width], width)
		if err == nil {
			faultID := EntityID(id)
			e.FaultEntityID = &faultID
			e.FaultEntityIDWidth = width
		}
	}
	return e, nil
}
