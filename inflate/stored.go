package inflate

// storedBlock copies an uncompressed block: after skipping to a byte
// boundary come LEN and its one's complement NLEN, then LEN raw bytes.
func (d *Decompressor) storedBlock() error {
	d.br.AlignToByte()

	n, err := d.br.ReadBits(16)
	if err != nil {
		return err
	}

	nn, err := d.br.ReadBits(16)
	if err != nil {
		return err
	}

	if uint16(nn) != ^uint16(n) {
		return ErrMalformedHeader
	}

	if err := d.grow(int(n)); err != nil {
		return err
	}

	for i := 0; i < int(n); i++ {
		c, err := d.br.ReadByte()
		if err != nil {
			return err
		}

		d.out = append(d.out, c)
	}

	return nil
}
