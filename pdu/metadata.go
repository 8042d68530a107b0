package pdu

import (
	"fmt"

	"github.com/ccsds-cfdp/gocfdp/internal/wireint"
)

// Metadata is the transfer opener: declared file size, negotiated
// checksum type, closure request, and the source/destination
// filenames.
type Metadata struct {
	ClosureRequested    bool
	ChecksumType        ChecksumType
	FileSize            uint64
	SourceFilename      string
	DestinationFilename string
}

func (Metadata) directive() (DirectiveCode, bool) { return DirectiveMetadata, true }

func (m Metadata) encodeField(largeFile bool) ([]byte, error) {
	if len(m.SourceFilename) > 0xFF || len(m.DestinationFilename) > 0xFF {
		return nil, fmt.Errorf("pdu: filename too long")
	}
	buf := make([]byte, 0, 16+len(m.SourceFilename)+len(m.DestinationFilename))
	buf = append(buf, b2u8(m.ClosureRequested)<<6|uint8(m.ChecksumType)&0x0F)

	sizeWidth := wireint.SizeWidth(largeFile)
	var err error
	buf, err = wireint.Append(buf, m.FileSize, sizeWidth)
	if err != nil {
		return nil, err
	}

	buf = append(buf, byte(len(m.SourceFilename)))
	buf = append(buf, []byte(m.SourceFilename)...)
	buf = append(buf, byte(len(m.DestinationFilename)))
	buf = append(buf, []byte(m.DestinationFilename)...)
	return buf, nil
}

func decodeMetadata(h Header, field []byte) (Metadata, error) {
	if len(field) < 1 {
		return Metadata{}, ErrTruncated
	}
	m := Metadata{
		ClosureRequested: field[0]&0x40 != 0,
		ChecksumType:     ChecksumType(field[0] & 0x0F),
	}
	off := 1
	sizeWidth := wireint.SizeWidth(h.LargeFile)
	if len(field) < off+sizeWidth {
		return Metadata{}, ErrTruncated
	}
	fileSize, err := wireint.Get(field[off:], sizeWidth)
	if err != nil {
		return Metadata{}, ErrTruncated
	}
	m.FileSize = fileSize
	off += sizeWidth

	srcName, n, err := readLengthPrefixed(field[off:])
	if err != nil {
		return Metadata{}, err
	}
	m.SourceFilename = srcName
	off += n

	dstName, _, err := readLengthPrefixed(field[off:])
	if err != nil {
		return Metadata{}, err
	}
	m.DestinationFilename = dstName
	return m, nil
}

func readLengthPrefixed(buf []byte) (string, int, error) {
	if len(buf) < 1 {
		return "", 0, ErrTruncated
	}
	n := int(buf[0])
	if len(buf) < 1+n {
		return "", 0, ErrTruncated
	}
	return string(buf[1 : 1+n]), 1 + n, nil
}
