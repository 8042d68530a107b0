package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ccsds-cfdp/gocfdp/pdu"
)

func TestCRC32CheckString(t *testing.T) {
	assert.EqualValues(t, 0xCBF43926, Of(pdu.ChecksumCRC32, []byte("123456789")))
}

func TestCRC32CCheckString(t *testing.T) {
	assert.EqualValues(t, 0xE3069283, Of(pdu.ChecksumCRC32C, []byte("123456789")))
}

func TestCRC32IncrementalMatchesOneShot(t *testing.T) {
	data := []byte("123456789")
	e := New(pdu.ChecksumCRC32)
	e.Add(0, data[:4])
	e.Add(4, data[4:])
	assert.EqualValues(t, Of(pdu.ChecksumCRC32, data), e.Sum())
}

func TestNullChecksumAlwaysZero(t *testing.T) {
	assert.EqualValues(t, 0, Of(pdu.ChecksumNull, []byte("anything")))
}

func TestModularWholeWords(t *testing.T) {
	// two 32-bit words: 0x00000001 + 0x00000002 == 0x00000003
	data := []byte{0, 0, 0, 1, 0, 0, 0, 2}
	assert.EqualValues(t, 3, Of(pdu.ChecksumModular, data))
}

func TestModularTrailingPartialWordLeftAligned(t *testing.T) {
	// a single trailing byte 0x01 must land in the top octet: 0x01000000,
	// not 0x00000001.
	data := []byte{0x01}
	assert.EqualValues(t, 0x01000000, Of(pdu.ChecksumModular, data))
}

func TestModularPendingAcrossAddCalls(t *testing.T) {
	e := New(pdu.ChecksumModular)
	e.Add(0, []byte{0x00, 0x00, 0x00}) // 3 bytes held as pending
	e.Add(3, []byte{0x01})             // completes the word 0x00000001
	assert.EqualValues(t, 1, e.Sum())
}

func TestModularWraps(t *testing.T) {
	e := New(pdu.ChecksumModular)
	e.Add(0, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	e.Add(4, []byte{0x00, 0x00, 0x00, 0x01})
	assert.EqualValues(t, 0, e.Sum())
}
