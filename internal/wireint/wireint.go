// Package wireint reads and writes the variable-width big-endian
// integers used throughout the CFDP wire format: entity ids, sequence
// numbers, and file offsets/sizes are all serialised in 1 to 8 octets
// depending on per-entity or per-header configuration.
package wireint

import "fmt"

// Put writes v into the low 'width' octets of dst (big-endian) where
// width is in [1,8]. dst must have length >= width.
func Put(dst []byte, v uint64, width int) error {
	if width < 1 || width > 8 {
		return fmt.Errorf("wireint: invalid width %d", width)
	}
	if len(dst) < width {
		return fmt.Errorf("wireint: buffer too short for width %d", width)
	}
	for i := 0; i < width; i++ {
		shift := uint(8 * (width - 1 - i))
		dst[i] = byte(v >> shift)
	}
	return nil
}

// Append is a convenience wrapper around Put that grows dst by width
// bytes and appends the encoded value.
func Append(dst []byte, v uint64, width int) ([]byte, error) {
	start := len(dst)
	dst = append(dst, make([]byte, width)...)
	if err := Put(dst[start:], v, width); err != nil {
		return nil, err
	}
	return dst, nil
}

// Get reads a big-endian unsigned integer of 'width' octets (1..8)
// from the front of src.
func Get(src []byte, width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("wireint: invalid width %d", width)
	}
	if len(src) < width {
		return 0, fmt.Errorf("wireint: buffer too short for width %d", width)
	}
	var v uint64
	for i := 0; i < width; i++ {
		v = v<<8 | uint64(src[i])
	}
	return v, nil
}

// SizeWidth returns the octet width used for file offsets/sizes given
// the header's large_file_flag.
func SizeWidth(largeFile bool) int {
	if largeFile {
		return 8
	}
	return 4
}
