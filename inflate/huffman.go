package inflate

const maxBits = 15

// HuffmanTable is a canonical Huffman decoding table. It only holds the
// number of codes of each length and the symbols in code order; DecodeSymbol
// rebuilds the codes while walking.
type HuffmanTable struct {
	counts  [maxBits + 1]int
	symbols []int
}

// NewHuffmanTable builds a table from per-symbol code lengths, where a length
// of 0 means the symbol is unused. Incomplete length sets are accepted.
func NewHuffmanTable(lengths []int) (*HuffmanTable, error) {
	t := &HuffmanTable{}

	for _, l := range lengths {
		if l < 0 || l > maxBits {
			return nil, ErrInvalidHuffmanLengths
		}

		t.counts[l]++
	}

	left := 1
	for l := 1; l <= maxBits; l++ {
		left <<= 1
		left -= t.counts[l]

		if left < 0 {
			return nil, ErrInvalidHuffmanLengths
		}
	}

	var offs [maxBits + 2]int
	for l := 1; l <= maxBits; l++ {
		offs[l+1] = offs[l] + t.counts[l]
	}

	t.symbols = make([]int, offs[maxBits+1])

	for sym, l := range lengths {
		if l == 0 {
			continue
		}

		t.symbols[offs[l]] = sym
		offs[l]++
	}

	return t, nil
}

// Counts returns the number of symbols assigned to each code length.
func (t *HuffmanTable) Counts() [maxBits + 1]int {
	return t.counts
}

// Symbols returns the symbols in canonical code order.
func (t *HuffmanTable) Symbols() []int {
	out := make([]int, len(t.symbols))
	copy(out, t.symbols)

	return out
}
