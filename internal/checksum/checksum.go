// Package checksum implements the file integrity engines CFDP
// negotiates over Metadata/EOF: the modular 32-bit sum, CRC-32,
// CRC-32C, and the Null engine. Each accumulates strictly in ascending
// file-offset order, the same discipline the teacher's CRC16 (used by
// the SDO client's block-transfer fifo) relies on when fed byte ranges
// off the wire.
package checksum

import "github.com/ccsds-cfdp/gocfdp/pdu"

// Engine accumulates a checksum over byte ranges fed in ascending
// file-offset order and yields the final 32-bit value.
type Engine interface {
	// Add folds data into the running checksum. offset is the file
	// offset of data[0]; callers must present ranges in ascending
	// offset order — out-of-order or overlapping calls produce an
	// undefined result, mirroring spec's assembled-buffer requirement.
	Add(offset uint64, data []byte)
	// Sum returns the checksum value computed so far.
	Sum() uint32
}

// New returns the Engine for a negotiated CFDP checksum type.
func New(typ pdu.ChecksumType) Engine {
	switch typ {
	case pdu.ChecksumCRC32:
		return &crcEngine{tab: &crc32Table}
	case pdu.ChecksumCRC32C:
		return &crcEngine{tab: &crc32CTable}
	case pdu.ChecksumNull:
		return nullEngine{}
	default:
		return &modularEngine{}
	}
}

// Of is a convenience for computing a one-shot checksum over an
// already-assembled buffer.
func Of(typ pdu.ChecksumType, data []byte) uint32 {
	e := New(typ)
	e.Add(0, data)
	return e.Sum()
}

// modularEngine implements the spec's modular 32-bit sum: the file is
// treated as a stream of big-endian 32-bit words, accumulated with
// wrapping addition. A trailing partial word is left-aligned into the
// high octets before being added — it must not be zero-extended into
// the low octets (spec.md §9).
type modularEngine struct {
	sum     uint32
	pending []byte // 0..3 bytes held over from the previous Add call
}

func (m *modularEngine) Add(offset uint64, data []byte) {
	buf := data
	if len(m.pending) > 0 {
		buf = append(append([]byte{}, m.pending...), data...)
		m.pending = nil
	}
	n := len(buf) - len(buf)%4
	for i := 0; i < n; i += 4 {
		word := uint32(buf[i])<<24 | uint32(buf[i+1])<<16 | uint32(buf[i+2])<<8 | uint32(buf[i+3])
		m.sum += word
	}
	if rest := buf[n:]; len(rest) > 0 {
		m.pending = append([]byte{}, rest...)
	}
}

func (m *modularEngine) Sum() uint32 {
	if len(m.pending) == 0 {
		return m.sum
	}
	var word uint32
	shift := uint(24)
	for _, b := range m.pending {
		word |= uint32(b) << shift
		shift -= 8
	}
	return m.sum + word
}

// nullEngine is the Null checksum type: verification is always
// bypassed, so its value is defined to be zero.
type nullEngine struct{}

func (nullEngine) Add(uint64, []byte) {}
func (nullEngine) Sum() uint32        { return 0 }

// crcEngine is a reflected CRC-32 (polynomial 0xEDB88320 for CRC-32,
// 0x82F63B78 for CRC-32C/Castagnoli), initial value 0xFFFFFFFF, final
// value XORed with 0xFFFFFFFF. Byte order of feed is strictly
// ascending file offset; it is computed over the assembled buffer, not
// the stream of (possibly duplicated or reordered) inbound PDUs
// (spec.md §9).
type crcEngine struct {
	tab    *[256]uint32
	crc    uint32
	inited bool
}

func (c *crcEngine) Add(offset uint64, data []byte) {
	if !c.inited {
		c.crc = 0xFFFFFFFF
		c.inited = true
	}
	for _, b := range data {
		c.crc = c.tab[byte(c.crc)^b] ^ (c.crc >> 8)
	}
}

func (c *crcEngine) Sum() uint32 {
	if !c.inited {
		return 0 ^ 0xFFFFFFFF ^ 0xFFFFFFFF // empty buffer: crc32(empty) == 0
	}
	return c.crc ^ 0xFFFFFFFF
}

func makeTable(poly uint32) [256]uint32 {
	var tab [256]uint32
	for i := 0; i < 256; i++ {
		crc := uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		tab[i] = crc
	}
	return tab
}

var (
	crc32Table  = makeTable(0xEDB88320)
	crc32CTable = makeTable(0x82F63B78)
)
