// Package container unwraps the gzip (RFC 1952) and zlib (RFC 1950) framings
// around a DEFLATE stream and verifies their trailers.
package container

import (
	"bufio"
	"encoding/binary"
	"hash/adler32"
	"hash/crc32"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dselans/inflate/inflate"
)

type Format string

const (
	FormatAuto Format = "auto"
	FormatRaw  Format = "raw"
	FormatGzip Format = "gzip"
	FormatZlib Format = "zlib"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8
	flagText    = 1 << 0
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4

	zlibDeflate   = 8
	zlibMaxWindow = 7
	zlibFlagDict  = 1 << 5
)

var (
	// ErrHeader is returned when a gzip or zlib header is invalid.
	ErrHeader = errors.New("container: invalid header")

	// ErrChecksum is returned when a trailer checksum or size does not match
	// the decoded data.
	ErrChecksum = errors.New("container: invalid checksum")
)

var le = binary.LittleEndian

// GzipHeader holds the metadata of a gzip member.
type GzipHeader struct {
	Comment string
	Extra   []byte
	ModTime time.Time
	Name    string
	OS      byte
	Text    bool
}

// Result is a fully decoded and verified stream.
type Result struct {
	Data   []byte
	Format Format
	Header *GzipHeader // gzip only
	Stats  inflate.Stats
}

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatRaw, FormatGzip, FormatZlib:
		return f, nil
	case "":
		return FormatAuto, nil
	case "deflate":
		return FormatRaw, nil
	default:
		return "", errors.Errorf("unknown format '%s'", s)
	}
}

// Decode reads one stream of format f from r. opts is handed to the
// decompressor and may be nil.
func Decode(r io.Reader, f Format, opts *inflate.Options) (*Result, error) {
	br := bufio.NewReader(r)

	if f == FormatAuto {
		f = detect(br)
		logrus.WithField("pkg", "container").Debugf("detected format '%s'", f)
	}

	switch f {
	case FormatRaw:
		return decodeRaw(br, opts)
	case FormatGzip:
		return decodeGzip(br, opts)
	case FormatZlib:
		return decodeZlib(br, opts)
	default:
		return nil, errors.Errorf("unsupported format '%s'", f)
	}
}

// detect peeks at the first two bytes without consuming them.
func detect(br *bufio.Reader) Format {
	b, err := br.Peek(2)
	if err != nil {
		return FormatRaw
	}

	if b[0] == gzipID1 && b[1] == gzipID2 {
		return FormatGzip
	}

	if validZlibHeader(b[0], b[1]) {
		return FormatZlib
	}

	return FormatRaw
}

func validZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == zlibDeflate && cmf>>4 <= zlibMaxWindow && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

func decodeRaw(br *bufio.Reader, opts *inflate.Options) (*Result, error) {
	d := inflate.New(br, opts)

	data, err := d.Inflate()
	if err != nil {
		return nil, err
	}

	return &Result{Data: data, Format: FormatRaw, Stats: d.Stats()}, nil
}

func decodeZlib(br *bufio.Reader, opts *inflate.Options) (*Result, error) {
	var hdr [2]byte

	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, errors.Wrap(noEOF(err), "unable to read zlib header")
	}

	if !validZlibHeader(hdr[0], hdr[1]) {
		return nil, ErrHeader
	}

	if hdr[1]&zlibFlagDict != 0 {
		return nil, errors.Wrap(ErrHeader, "preset dictionaries are not supported")
	}

	d := inflate.New(br, opts)

	data, err := d.Inflate()
	if err != nil {
		return nil, err
	}

	var sum [4]byte
	if _, err := io.ReadFull(br, sum[:]); err != nil {
		return nil, errors.Wrap(noEOF(err), "unable to read zlib trailer")
	}

	if binary.BigEndian.Uint32(sum[:]) != adler32.Checksum(data) {
		return nil, ErrChecksum
	}

	stats := d.Stats()
	stats.BytesIn += 6

	return &Result{Data: data, Format: FormatZlib, Stats: stats}, nil
}

func decodeGzip(br *bufio.Reader, opts *inflate.Options) (*Result, error) {
	hdr, n, err := readGzipHeader(br)
	if err != nil {
		return nil, err
	}

	d := inflate.New(br, opts)

	data, err := d.Inflate()
	if err != nil {
		return nil, err
	}

	var trailer [8]byte
	if _, err := io.ReadFull(br, trailer[:]); err != nil {
		return nil, errors.Wrap(noEOF(err), "unable to read gzip trailer")
	}

	if le.Uint32(trailer[:4]) != crc32.ChecksumIEEE(data) || le.Uint32(trailer[4:]) != uint32(len(data)) {
		return nil, ErrChecksum
	}

	stats := d.Stats()
	stats.BytesIn += n + 8

	return &Result{Data: data, Format: FormatGzip, Header: hdr, Stats: stats}, nil
}

// readGzipHeader reads the member header described in RFC 1952 section
// 2.3.1 and returns it along with its size in bytes.
func readGzipHeader(br *bufio.Reader) (*GzipHeader, int64, error) {
	var buf [10]byte

	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return nil, 0, errors.Wrap(noEOF(err), "unable to read gzip header")
	}

	if buf[0] != gzipID1 || buf[1] != gzipID2 || buf[2] != gzipDeflate {
		return nil, 0, ErrHeader
	}

	hdr := &GzipHeader{OS: buf[9], Text: buf[3]&flagText != 0}
	flg := buf[3]
	n := int64(10)

	// A zero MTIME means no time is set.
	if t := int64(le.Uint32(buf[4:8])); t > 0 {
		hdr.ModTime = time.Unix(t, 0)
	}

	digest := crc32.ChecksumIEEE(buf[:])

	if flg&flagExtra != 0 {
		if _, err := io.ReadFull(br, buf[:2]); err != nil {
			return nil, 0, errors.Wrap(noEOF(err), "unable to read gzip extra length")
		}

		digest = crc32.Update(digest, crc32.IEEETable, buf[:2])
		hdr.Extra = make([]byte, le.Uint16(buf[:2]))

		if _, err := io.ReadFull(br, hdr.Extra); err != nil {
			return nil, 0, errors.Wrap(noEOF(err), "unable to read gzip extra field")
		}

		digest = crc32.Update(digest, crc32.IEEETable, hdr.Extra)
		n += 2 + int64(len(hdr.Extra))
	}

	if flg&flagName != 0 {
		s, raw, err := readString(br)
		if err != nil {
			return nil, 0, errors.Wrap(err, "unable to read gzip name")
		}

		hdr.Name = s
		digest = crc32.Update(digest, crc32.IEEETable, raw)
		n += int64(len(raw))
	}

	if flg&flagComment != 0 {
		s, raw, err := readString(br)
		if err != nil {
			return nil, 0, errors.Wrap(err, "unable to read gzip comment")
		}

		hdr.Comment = s
		digest = crc32.Update(digest, crc32.IEEETable, raw)
		n += int64(len(raw))
	}

	if flg&flagHdrCrc != 0 {
		if _, err := io.ReadFull(br, buf[:2]); err != nil {
			return nil, 0, errors.Wrap(noEOF(err), "unable to read gzip header crc")
		}

		if le.Uint16(buf[:2]) != uint16(digest) {
			return nil, 0, ErrHeader
		}

		n += 2
	}

	return hdr, n, nil
}

// maxStringLen bounds the NUL-terminated header strings.
const maxStringLen = 64 * 1024

// readString reads a NUL-terminated ISO 8859-1 string and returns it as UTF-8
// along with the raw bytes including the terminator.
func readString(br *bufio.Reader) (string, []byte, error) {
	raw := make([]byte, 0, 64)

	for {
		c, err := br.ReadByte()
		if err != nil {
			return "", nil, noEOF(err)
		}

		raw = append(raw, c)

		if c == 0 {
			break
		}

		if len(raw) > maxStringLen {
			return "", nil, ErrHeader
		}
	}

	s := make([]rune, 0, len(raw)-1)
	for _, c := range raw[:len(raw)-1] {
		s = append(s, rune(c))
	}

	return string(s), raw, nil
}

// noEOF converts io.EOF to io.ErrUnexpectedEOF.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}

	return err
}
