package inflate

func (d *Decompressor) dynamicBlock() error {
	hlit, err := d.br.ReadBits(5)
	if err != nil {
		return err
	}

	hdist, err := d.br.ReadBits(5)
	if err != nil {
		return err
	}

	hclen, err := d.br.ReadBits(4)
	if err != nil {
		return err
	}

	nlen := int(hlit) + 257
	ndist := int(hdist) + 1
	ncode := int(hclen) + 4

	if nlen > maxLitCodes || ndist > maxDistCodes {
		return ErrMalformedHeader
	}

	var codeLens [numCodeLens]int

	for i := 0; i < ncode; i++ {
		v, err := d.br.ReadBits(3)
		if err != nil {
			return err
		}

		codeLens[codeLenOrder[i]] = int(v)
	}

	codeLenTable, err := NewHuffmanTable(codeLens[:])
	if err != nil {
		return err
	}

	// Literal/length and distance lengths form one sequence; a repeat may
	// run from one into the other.
	lengths, err := readCodeLengths(d.br, codeLenTable, nlen+ndist)
	if err != nil {
		return err
	}

	lit, err := NewHuffmanTable(lengths[:nlen])
	if err != nil {
		return err
	}

	dist, err := NewHuffmanTable(lengths[nlen:])
	if err != nil {
		return err
	}

	return d.decodeBlock(lit, dist)
}

// readCodeLengths decodes exactly n code lengths, expanding the repeat
// symbols 16, 17 and 18.
func readCodeLengths(br *BitReader, t *HuffmanTable, n int) ([]int, error) {
	lengths := make([]int, n)

	for i := 0; i < n; {
		sym, err := br.DecodeSymbol(t)
		if err != nil {
			return nil, err
		}

		if sym < 16 {
			lengths[i] = sym
			i++

			continue
		}

		var (
			val   int
			base  int
			nbits uint
		)

		switch sym {
		case 16:
			if i == 0 {
				return nil, ErrMalformedHeader
			}

			val, base, nbits = lengths[i-1], 3, 2
		case 17:
			base, nbits = 3, 3
		case 18:
			base, nbits = 11, 7
		default:
			return nil, ErrMalformedHeader
		}

		extra, err := br.ReadBits(nbits)
		if err != nil {
			return nil, err
		}

		repeat := base + int(extra)
		if i+repeat > n {
			return nil, ErrMalformedHeader
		}

		for ; repeat > 0; repeat-- {
			lengths[i] = val
			i++
		}
	}

	return lengths, nil
}
