package inflate

import (
	"bytes"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBits(t *testing.T) {
	// 0xb5 = 1011 0101, 0x3c = 0011 1100
	br := NewBitReader(bytes.NewReader([]byte{0xb5, 0x3c}))

	v, err := br.ReadBits(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	v, err = br.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x2), v)

	v, err = br.ReadBits(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)

	// Spans the byte boundary: high nibble of 0xb5 then low nibble of 0x3c.
	v, err = br.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcb), v)
	assert.Equal(t, int64(2), br.Offset())

	v, err = br.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3), v)

	_, err = br.ReadBits(1)
	assert.Equal(t, ErrEndOfInput, err)
}

func TestReadBitsSixteen(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0x34, 0x12, 0xff}))

	v, err := br.ReadBits(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), v)
	assert.Equal(t, int64(2), br.Offset())
}

func TestReadBitsPullsOnlyWhatIsNeeded(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0xff, 0xff, 0xff}))

	_, err := br.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), br.Offset())

	_, err = br.ReadBits(5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), br.Offset())

	_, err = br.ReadBits(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), br.Offset())
}

func TestAlignToByte(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0xff, 0xaa, 0x55}))

	_, err := br.ReadBits(3)
	require.NoError(t, err)

	br.AlignToByte()

	c, err := br.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xaa), c)

	c, err = br.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x55), c)

	_, err = br.ReadByte()
	assert.Equal(t, ErrEndOfInput, err)
}

func TestNewBitReaderWrapsPlainReader(t *testing.T) {
	br := NewBitReader(iotest.OneByteReader(bytes.NewReader([]byte{0x0f})))

	v, err := br.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xf), v)
}
