package wireint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutGetRoundTrip(t *testing.T) {
	for _, width := range []int{1, 2, 3, 4, 5, 6, 7, 8} {
		var max uint64 = 1<<uint(width*8) - 1
		buf := make([]byte, width)
		assert.NoError(t, Put(buf, max, width))
		got, err := Get(buf, width)
		assert.NoError(t, err)
		assert.EqualValues(t, max, got)
	}
}

func TestAppend(t *testing.T) {
	buf, err := Append([]byte{0xAA}, 0x0102, 2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x01, 0x02}, buf)
}

func TestGetTooShort(t *testing.T) {
	_, err := Get([]byte{0x01}, 4)
	assert.Error(t, err)
}

func TestInvalidWidth(t *testing.T) {
	assert.Error(t, Put(make([]byte, 9), 0, 9))
	assert.Error(t, Put(make([]byte, 1), 0, 0))
}

func TestSizeWidth(t *testing.T) {
	assert.Equal(t, 4, SizeWidth(false))
	assert.Equal(t, 8, SizeWidth(true))
}
