package inflate

import (
	"github.com/pkg/errors"
)

// Every error returned by a Decompressor is one of these values, returned
// as-is so callers can compare with errors.Is.
var (
	// ErrEndOfInput is returned when the source runs out before a field
	// was fully read.
	ErrEndOfInput = errors.New("inflate: unexpected end of input")

	// ErrInvalidHuffmanLengths is returned when a code length set is
	// over-subscribed or contains a length outside [0,15].
	ErrInvalidHuffmanLengths = errors.New("inflate: invalid huffman code lengths")

	// ErrInvalidSymbol is returned when no code of length 1..15 matched.
	ErrInvalidSymbol = errors.New("inflate: invalid huffman symbol")

	// ErrMalformedHeader is returned for bad block headers: reserved block
	// type, out of range dynamic counts, bad repeat codes or a stored block
	// whose length check does not match.
	ErrMalformedHeader = errors.New("inflate: malformed block header")

	// ErrInvalidDistance is returned when a back-reference points before
	// the start of the output.
	ErrInvalidDistance = errors.New("inflate: invalid back-reference distance")

	// ErrMalformedBlock is returned for a literal/length or distance symbol
	// that has no meaning in a block body.
	ErrMalformedBlock = errors.New("inflate: malformed block")

	// ErrOutputLimit is returned when the output would grow past
	// Options.MaxOutputSize.
	ErrOutputLimit = errors.New("inflate: output size limit exceeded")
)
