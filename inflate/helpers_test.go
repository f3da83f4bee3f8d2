package inflate

// bitWriter builds DEFLATE bit streams by hand.
type bitWriter struct {
	out []byte
	buf uint32
	nb  uint
}

// bits writes an n-bit field LSB-first.
func (w *bitWriter) bits(v uint32, n uint) *bitWriter {
	for i := uint(0); i < n; i++ {
		w.buf |= ((v >> i) & 1) << w.nb
		w.nb++

		if w.nb == 8 {
			w.out = append(w.out, byte(w.buf))
			w.buf, w.nb = 0, 0
		}
	}

	return w
}

// code writes an n-bit Huffman code, most significant bit first.
func (w *bitWriter) code(c uint32, n uint) *bitWriter {
	for i := n; i > 0; i-- {
		w.bits((c>>(i-1))&1, 1)
	}

	return w
}

// fixedLit writes a literal/length symbol with the fixed block code.
func (w *bitWriter) fixedLit(sym int) *bitWriter {
	switch {
	case sym < 144:
		return w.code(uint32(0x30+sym), 8)
	case sym < 256:
		return w.code(uint32(0x190+sym-144), 9)
	case sym < 280:
		return w.code(uint32(sym-256), 7)
	default:
		return w.code(uint32(0xc0+sym-280), 8)
	}
}

// fixedDist writes a distance symbol with the fixed block code.
func (w *bitWriter) fixedDist(sym int) *bitWriter {
	return w.code(uint32(sym), 5)
}

// bytes flushes any partial byte, zero padded.
func (w *bitWriter) bytes() []byte {
	out := append([]byte{}, w.out...)
	if w.nb > 0 {
		out = append(out, byte(w.buf))
	}

	return out
}
