package inflate

import (
	"bytes"
	stdflate "compress/flate"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, data []byte, level int) []byte {
	t.Helper()

	var buf bytes.Buffer

	w, err := flate.NewWriter(&buf, level)
	require.NoError(t, err)

	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func testCorpus() map[string][]byte {
	rng := rand.New(rand.NewSource(42))

	random := make([]byte, 100_000)
	rng.Read(random)

	skewed := make([]byte, 200_000)
	for i := range skewed {
		skewed[i] = "aaaabbbcdeeeeeee"[rng.Intn(16)]
	}

	return map[string][]byte{
		"empty":    {},
		"single":   []byte("x"),
		"text":     []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 2000)),
		"zeros":    make([]byte, 300_000),
		"random":   random,
		"skewed":   skewed,
		"sentence": []byte("Hello, world! Hello, world! Hello, world!"),
	}
}

func TestInflateRoundTrip(t *testing.T) {
	levels := []int{flate.HuffmanOnly, flate.NoCompression, flate.BestSpeed, 5, flate.BestCompression}

	for name, data := range testCorpus() {
		for _, level := range levels {
			out, err := InflateBytes(compress(t, data, level))
			require.NoError(t, err, "%s at level %d", name, level)
			require.True(t, bytes.Equal(data, out), "%s at level %d: output mismatch", name, level)
		}
	}
}

// randomInput mixes runs of words from a small vocabulary with random bytes
// so encoders pick dynamic blocks with uneven code lengths.
func randomInput(rng *rand.Rand, size int) []byte {
	words := []string{"lorem", "ipsum", "dolor", "sit", "amet", "\n", " ", "0123", "zzzzzzzz"}
	out := make([]byte, 0, size)

	for len(out) < size {
		switch rng.Intn(4) {
		case 0:
			chunk := make([]byte, rng.Intn(64))
			rng.Read(chunk)
			out = append(out, chunk...)
		case 1:
			out = append(out, bytes.Repeat([]byte{byte(rng.Intn(256))}, rng.Intn(300))...)
		default:
			for i := rng.Intn(50); i > 0; i-- {
				out = append(out, words[rng.Intn(len(words))]...)
			}
		}
	}

	return out[:size]
}

func TestInflateRoundTripStdlibEncoder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 40; i++ {
		data := randomInput(rng, rng.Intn(80_000))

		for level := stdflate.HuffmanOnly; level <= stdflate.BestCompression; level++ {
			var buf bytes.Buffer

			w, err := stdflate.NewWriter(&buf, level)
			require.NoError(t, err)

			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			out, err := Inflate(&buf)
			require.NoError(t, err, "input %d (%d bytes) at level %d", i, len(data), level)
			require.True(t, bytes.Equal(data, out), "input %d at level %d: output mismatch", i, level)
		}
	}
}

func TestInflateFixedLiteral(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockFixed, 2)
	w.fixedLit('A').fixedLit(endOfBlock)

	out, err := InflateBytes(w.bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41}, out)
}

func TestInflateOverlappingCopy(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockFixed, 2)
	w.fixedLit('a').fixedLit('b').fixedLit('c')
	w.fixedLit(259) // length 5, no extra bits
	w.fixedDist(0)  // distance 1, no extra bits
	w.fixedLit(endOfBlock)

	out, err := InflateBytes(w.bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte("abcccccc"), out)
}

func TestInflateCopyWithExtraBits(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockFixed, 2)
	w.fixedLit('x').fixedLit('y').fixedLit('z').fixedLit('w').fixedLit('v')
	w.fixedLit(266).bits(1, 1) // length 13 + 1 = 14
	w.fixedDist(4).bits(0, 1)  // distance 5 + 0 = 5
	w.fixedLit(endOfBlock)

	out, err := InflateBytes(w.bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte("xyzwvxyzwvxyzwvxyzw"), out)
}

func TestInflateMaxLength(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockFixed, 2)
	w.fixedLit('q')
	w.fixedLit(285) // length 258
	w.fixedDist(0)
	w.fixedLit(endOfBlock)

	out, err := InflateBytes(w.bytes())
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("q"), 259), out)
}

func TestInflateInvalidDistance(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockFixed, 2)
	w.fixedLit('a')
	w.fixedLit(257) // length 3
	w.fixedDist(1)  // distance 2
	w.fixedLit(endOfBlock)

	out, err := InflateBytes(w.bytes())
	assert.Equal(t, ErrInvalidDistance, err)
	assert.Nil(t, out)
}

func TestInflateInvalidDistanceEmptyOutput(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockFixed, 2)
	w.fixedLit(257)
	w.fixedDist(0)

	_, err := InflateBytes(w.bytes())
	assert.Equal(t, ErrInvalidDistance, err)
}

func TestInflateInvalidLengthSymbol(t *testing.T) {
	for _, sym := range []int{286, 287} {
		w := &bitWriter{}
		w.bits(1, 1).bits(blockFixed, 2)
		w.fixedLit(sym)

		_, err := InflateBytes(w.bytes())
		assert.Equal(t, ErrMalformedBlock, err, "symbol %d", sym)
	}
}

func TestInflateReservedBlockType(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockReserved, 2)

	_, err := InflateBytes(w.bytes())
	assert.Equal(t, ErrMalformedHeader, err)
}

func TestInflateEmptyInput(t *testing.T) {
	out, err := InflateBytes(nil)
	assert.Equal(t, ErrEndOfInput, err)
	assert.Nil(t, out)
}

func TestInflateMissingFinalBlock(t *testing.T) {
	w := &bitWriter{}
	w.bits(0, 1).bits(blockFixed, 2)
	w.fixedLit('a').fixedLit(endOfBlock)

	_, err := InflateBytes(w.bytes())
	assert.Equal(t, ErrEndOfInput, err)
}

func TestInflateBackReferenceAcrossBlocks(t *testing.T) {
	w := &bitWriter{}
	w.bits(0, 1).bits(blockFixed, 2)
	w.fixedLit('h').fixedLit('i').fixedLit(endOfBlock)
	w.bits(1, 1).bits(blockFixed, 2)
	w.fixedLit(258) // length 4
	w.fixedDist(1)  // distance 2
	w.fixedLit(endOfBlock)

	d := New(bytes.NewReader(w.bytes()), nil)

	out, err := d.Inflate()
	require.NoError(t, err)
	assert.Equal(t, []byte("hihihi"), out)
	assert.Equal(t, 2, d.Stats().FixedBlocks)
}

func TestInflateStoredBlock(t *testing.T) {
	w := &bitWriter{}
	w.bits(0, 1).bits(blockStored, 2)
	w.bits(0, 5) // padding
	w.bits(5, 16).bits(^uint32(5)&0xffff, 16)

	for _, c := range []byte("hello") {
		w.bits(uint32(c), 8)
	}

	w.bits(1, 1).bits(blockFixed, 2)
	w.fixedLit('!').fixedLit(endOfBlock)

	d := New(bytes.NewReader(w.bytes()), nil)

	out, err := d.Inflate()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello!"), out)

	stats := d.Stats()
	assert.Equal(t, 1, stats.StoredBlocks)
	assert.Equal(t, 1, stats.FixedBlocks)
	assert.Equal(t, 6, stats.BytesOut)
}

func TestInflateStoredBlockBadLength(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockStored, 2).bits(0, 5)
	w.bits(5, 16).bits(5, 16)

	_, err := InflateBytes(w.bytes())
	assert.Equal(t, ErrMalformedHeader, err)
}

func TestInflateStoredBlockTruncated(t *testing.T) {
	w := &bitWriter{}
	w.bits(1, 1).bits(blockStored, 2).bits(0, 5)
	w.bits(5, 16).bits(^uint32(5)&0xffff, 16)
	w.bits('a', 8).bits('b', 8)

	_, err := InflateBytes(w.bytes())
	assert.Equal(t, ErrEndOfInput, err)
}

func TestInflateTruncated(t *testing.T) {
	data := []byte(strings.Repeat("truncation should never panic or produce output; ", 200))

	for _, level := range []int{flate.NoCompression, flate.BestSpeed, flate.BestCompression} {
		stream := compress(t, data, level)

		for i := 0; i < len(stream)-1; i++ {
			out, err := InflateBytes(stream[:i])
			require.Equal(t, ErrEndOfInput, err, "level %d cut at %d", level, i)
			require.Nil(t, out)
		}
	}
}

func TestInflateOutputLimit(t *testing.T) {
	stream := compress(t, make([]byte, 10_000), flate.BestCompression)

	_, err := New(bytes.NewReader(stream), &Options{MaxOutputSize: 9_999}).Inflate()
	assert.Equal(t, ErrOutputLimit, err)

	out, err := New(bytes.NewReader(stream), &Options{MaxOutputSize: 10_000}).Inflate()
	require.NoError(t, err)
	assert.Len(t, out, 10_000)
}

func TestInflateConcurrentSessions(t *testing.T) {
	corpus := testCorpus()
	wg := &sync.WaitGroup{}
	errCh := make(chan error, len(corpus))

	for name, data := range corpus {
		stream := compress(t, data, flate.BestCompression)

		wg.Add(1)

		go func(name string, data, stream []byte) {
			defer wg.Done()

			out, err := InflateBytes(stream)
			if err != nil {
				errCh <- err
				return
			}

			if !bytes.Equal(out, data) {
				errCh <- assert.AnError
			}
		}(name, data, stream)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		assert.NoError(t, err)
	}
}
