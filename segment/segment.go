// Package segment implements the offset-keyed segment map a receive
// transaction reassembles a file from: inbound FileData PDUs arrive in
// whatever order the transport (and any retransmission) delivers them,
// and the map tracks which byte ranges have been seen so gaps can be
// NAK'd and, once complete, the file linearly assembled.
//
// This generalizes the teacher's internal/fifo, which only ever has to
// handle a single in-order byte stream (the SDO block-transfer fifo);
// Map additionally tolerates out-of-order arrival. Segments that overlap
// without sharing an offset are stored, but make Assemble fail.
package segment

import "sort"

// Gap is a missing byte range [Start, End) the receiver has not yet
// seen.
type Gap struct {
	Start uint64
	End   uint64
}

type entry struct {
	offset uint64
	data   []byte
}

// Map is an ordered, offset-keyed store of received byte ranges. The
// zero value is ready to use.
type Map struct {
	entries []entry // kept sorted by offset
	bytes   uint64
}

// Insert records bytes received at offset. If an earlier PDU already
// occupies this exact offset, the new bytes replace it — this
// overwrite-on-duplicate-offset behaviour is explicit (spec.md §9) and
// is not treated as an error.
func (m *Map) Insert(offset uint64, data []byte) {
	cp := append([]byte(nil), data...)
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].offset >= offset })
	if i < len(m.entries) && m.entries[i].offset == offset {
		m.bytes -= uint64(len(m.entries[i].data))
		m.entries[i].data = cp
		m.bytes += uint64(len(cp))
		return
	}
	m.entries = append(m.entries, entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = entry{offset: offset, data: cp}
	m.bytes += uint64(len(cp))
}

// BytesReceived returns the sum of all currently-held segment
// lengths, counting the latest write at any offset only once.
func (m *Map) BytesReceived() uint64 { return m.bytes }

// Reset discards all held segments.
func (m *Map) Reset() {
	m.entries = nil
	m.bytes = 0
}

// Gaps enumerates the byte ranges missing from the map given the
// declared file size, per spec.md §4.3: walk segments in ascending
// offset order, emitting a gap whenever a segment starts after the
// expected next offset, then (if the last segment doesn't reach
// file_size) a final trailing gap.
func (m *Map) Gaps(fileSize uint64) []Gap {
	var gaps []Gap
	expected := uint64(0)
	for _, e := range m.entries {
		if e.offset > expected {
			gaps = append(gaps, Gap{Start: expected, End: e.offset})
		}
		end := e.offset + uint64(len(e.data))
		if end > expected {
			expected = end
		}
	}
	if expected < fileSize {
		gaps = append(gaps, Gap{Start: expected, End: fileSize})
	}
	return gaps
}

// ErrGapDetected is returned by Assemble when the segments do not
// cover [0, fileSize) contiguously.
type ErrGapDetected struct{ At uint64 }

func (e ErrGapDetected) Error() string { return "segment: gap detected in reassembly" }

// Assemble linearly reconstructs a fileSize-byte buffer from the held
// segments. Walking them in ascending offset order, each segment must
// start exactly at the running expected offset (0 for the first); a
// gap or an overlap between segments, or coverage that stops short of
// fileSize, fails with ErrGapDetected. A segment reaching past fileSize
// is cut at fileSize.
func (m *Map) Assemble(fileSize uint64) ([]byte, error) {
	out := make([]byte, fileSize)
	expected := uint64(0)
	for _, e := range m.entries {
		if e.offset != expected {
			return nil, ErrGapDetected{At: expected}
		}
		end := e.offset + uint64(len(e.data))
		if end > fileSize {
			end = fileSize
		}
		copy(out[expected:end], e.data[:end-expected])
		expected = end
	}
	if expected != fileSize {
		return nil, ErrGapDetected{At: expected}
	}
	return out, nil
}
