package inflate

import (
	"bufio"
	"io"
)

// BitReader reads fields from a DEFLATE stream. Bits are consumed from the
// least significant end of each byte first.
type BitReader struct {
	r      io.ByteReader
	buf    uint32 // unconsumed bits, right-aligned
	nb     uint   // number of valid bits in buf
	offset int64  // bytes pulled from r
}

// NewBitReader returns a BitReader over r. If r is not an io.ByteReader it is
// wrapped in a bufio.Reader, which may read ahead of what the stream needs.
func NewBitReader(r io.Reader) *BitReader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	return &BitReader{r: br}
}

// ReadBits returns the next n bits (n <= 16) packed LSB-first.
func (b *BitReader) ReadBits(n uint) (uint32, error) {
	for b.nb < n {
		c, err := b.r.ReadByte()
		if err != nil {
			return 0, ErrEndOfInput
		}

		b.offset++
		b.buf |= uint32(c) << b.nb
		b.nb += 8
	}

	v := b.buf & (1<<n - 1)
	b.buf >>= n
	b.nb -= n

	return v, nil
}

// AlignToByte drops whatever is left of the current partial byte.
func (b *BitReader) AlignToByte() {
	b.buf >>= b.nb % 8
	b.nb -= b.nb % 8
}

// ReadByte reads one whole byte. The reader must be byte aligned.
func (b *BitReader) ReadByte() (byte, error) {
	if b.nb >= 8 {
		v, _ := b.ReadBits(8)
		return byte(v), nil
	}

	c, err := b.r.ReadByte()
	if err != nil {
		return 0, ErrEndOfInput
	}

	b.offset++

	return c, nil
}

// Offset returns the number of bytes consumed from the underlying source.
func (b *BitReader) Offset() int64 {
	return b.offset
}

// DecodeSymbol reads one Huffman coded symbol using t. Unlike ReadBits, the
// code is accumulated most significant bit first, one bit at a time.
func (b *BitReader) DecodeSymbol(t *HuffmanTable) (int, error) {
	var code, first, index int

	for l := 1; l <= maxBits; l++ {
		bit, err := b.ReadBits(1)
		if err != nil {
			return 0, err
		}

		code |= int(bit)
		count := t.counts[l]

		if code < first+count {
			return t.symbols[index+code-first], nil
		}

		index += count
		first += count
		first <<= 1
		code <<= 1
	}

	return 0, ErrInvalidSymbol
}
