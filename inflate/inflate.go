// Package inflate decodes DEFLATE (RFC 1951) compressed data.
//
// A Decompressor owns one decoding session: the bit reader over the input
// and the output buffer that back-references copy from. Sessions share no
// mutable state, so independent streams may be decoded concurrently.
package inflate

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"
)

// Options tunes a Decompressor. The zero value means no limits.
type Options struct {
	// MaxOutputSize caps the decoded size in bytes; 0 disables the cap.
	MaxOutputSize int

	// Log is used for per-block debug output. Defaults to the package logger.
	Log *logrus.Entry
}

// Stats describes what a session has decoded so far.
type Stats struct {
	StoredBlocks  int
	FixedBlocks   int
	DynamicBlocks int
	BytesIn       int64
	BytesOut      int
}

// Blocks returns the total number of blocks decoded.
func (s Stats) Blocks() int {
	return s.StoredBlocks + s.FixedBlocks + s.DynamicBlocks
}

// Decompressor is one decoding session over a raw DEFLATE stream.
type Decompressor struct {
	br     *BitReader
	out    []byte
	maxOut int
	stats  Stats
	log    *logrus.Entry
}

// New returns a Decompressor reading a raw DEFLATE stream from r. opts may be
// nil.
func New(r io.Reader, opts *Options) *Decompressor {
	d := &Decompressor{
		br:  NewBitReader(r),
		log: logrus.WithField("pkg", "inflate"),
	}

	if opts != nil {
		d.maxOut = opts.MaxOutputSize

		if opts.Log != nil {
			d.log = opts.Log
		}
	}

	return d
}

// Inflate is a convenience wrapper that decodes all of r.
func Inflate(r io.Reader) ([]byte, error) {
	return New(r, nil).Inflate()
}

// InflateBytes decodes a complete in-memory stream.
func InflateBytes(data []byte) ([]byte, error) {
	return New(bytes.NewReader(data), nil).Inflate()
}

// Inflate decodes blocks until the final block has been read and returns the
// decoded data. On error no output is returned.
func (d *Decompressor) Inflate() ([]byte, error) {
	llog := d.log.WithFields(logrus.Fields{
		"method": "Inflate",
	})

	for {
		final, err := d.br.ReadBits(1)
		if err != nil {
			return nil, err
		}

		typ, err := d.br.ReadBits(2)
		if err != nil {
			return nil, err
		}

		llog.Debugf("block %d: type '%d' final '%v' at input offset '%d'",
			d.stats.Blocks(), typ, final == 1, d.br.Offset())

		if err := d.readBlock(typ); err != nil {
			llog.Debugf("block %d failed after '%d' output bytes: %v", d.stats.Blocks(), len(d.out), err)
			return nil, err
		}

		if final == 1 {
			break
		}
	}

	d.stats.BytesIn = d.br.Offset()
	d.stats.BytesOut = len(d.out)

	return d.out, nil
}

// Stats returns counters for the blocks decoded so far.
func (d *Decompressor) Stats() Stats {
	s := d.stats
	s.BytesIn = d.br.Offset()
	s.BytesOut = len(d.out)

	return s
}

func (d *Decompressor) readBlock(typ uint32) error {
	switch typ {
	case blockStored:
		d.stats.StoredBlocks++
		return d.storedBlock()
	case blockFixed:
		d.stats.FixedBlocks++
		return d.fixedBlock()
	case blockDynamic:
		d.stats.DynamicBlocks++
		return d.dynamicBlock()
	default:
		return ErrMalformedHeader
	}
}

// grow checks that n more output bytes fit under the output cap.
func (d *Decompressor) grow(n int) error {
	if d.maxOut > 0 && len(d.out)+n > d.maxOut {
		return ErrOutputLimit
	}

	return nil
}

// decodeBlock decodes a Huffman coded block body up to its end-of-block
// symbol.
func (d *Decompressor) decodeBlock(lit, dist *HuffmanTable) error {
	for {
		sym, err := d.br.DecodeSymbol(lit)
		if err != nil {
			return err
		}

		switch {
		case sym < endOfBlock:
			if err := d.grow(1); err != nil {
				return err
			}

			d.out = append(d.out, byte(sym))
		case sym == endOfBlock:
			return nil
		case sym < endOfBlock+1+len(lengthBase):
			if err := d.copyMatch(sym-endOfBlock-1, dist); err != nil {
				return err
			}
		default:
			return ErrMalformedBlock
		}
	}
}

// copyMatch reads the rest of a length/distance pair and appends the match.
func (d *Decompressor) copyMatch(idx int, dist *HuffmanTable) error {
	extra, err := d.br.ReadBits(lengthExtra[idx])
	if err != nil {
		return err
	}

	length := lengthBase[idx] + int(extra)

	dsym, err := d.br.DecodeSymbol(dist)
	if err != nil {
		return err
	}

	if dsym >= len(distBase) {
		return ErrMalformedBlock
	}

	extra, err = d.br.ReadBits(distExtra[dsym])
	if err != nil {
		return err
	}

	distance := distBase[dsym] + int(extra)
	if distance > len(d.out) {
		return ErrInvalidDistance
	}

	if err := d.grow(length); err != nil {
		return err
	}

	// Byte at a time: when distance < length the copy reads bytes it has
	// just written.
	base := len(d.out) - distance
	for i := 0; i < length; i++ {
		d.out = append(d.out, d.out[base+i])
	}

	return nil
}
