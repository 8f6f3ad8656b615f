package chain

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
)

// Magic is the 4-byte marker that starts every record in a block file.
type Magic [4]byte

// https://learnmeabitcoin.com/technical/magic-bytes
var MainNetMagic = Magic{0xf9, 0xbe, 0xb4, 0xd9}

func (m Magic) String() string { return hex.EncodeToString(m[:]) }

var (
	ErrBadMagic         = errors.New("bad magic bytes")
	ErrTruncated        = errors.New("truncated record")
	ErrShortRecord      = errors.New("record too short to hold a header")
	ErrHeightOutOfRange = errors.New("height out of range")
)

// SkipRecord reads the magic and length of the record at the cursor and seeks past its
// payload without reading it. The cursor is left at the start of the next record.
func SkipRecord(rs io.ReadSeeker, magic Magic) error {
	blockSize, err := readRecordPrefix(rs, magic)
	if err != nil {
		return err
	}

	return skip(rs, int64(blockSize))
}

// skip seeks n bytes forward. Seeking past the end of a file is not an error, so the last
// skipped byte is read to make sure it exists.
func skip(rs io.ReadSeeker, n int64) error {
	if n == 0 {
		return nil
	}

	_, err := rs.Seek(n-1, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "seeking past record")
	}

	_, err = read(rs, 1)
	if err != nil {
		return truncated(err, "skipping %d bytes", n)
	}

	return nil
}

// ReadHeader reads the magic and length of the record at the cursor and decodes the 80-byte
// header that follows. Exactly 88 bytes are consumed; the rest of the record is left unread.
func ReadHeader(r io.Reader, magic Magic) (*Header, error) {
	err := readMagic(r, magic)
	if err != nil {
		return nil, err
	}

	_, header, err := readLengthAndHeader(r)
	return header, err
}

// readLengthAndHeader reads the rest of a record prefix after its magic and decodes the header.
// The payload length is returned so callers can skip the remaining length-HeaderSize bytes.
func readLengthAndHeader(r io.Reader) (uint32, *Header, error) {
	blockSize, err := readRecordLength(r)
	if err != nil {
		return 0, nil, err
	}

	if blockSize < HeaderSize {
		return 0, nil, errors.Mark(errors.Newf("record length %d, header needs %d", blockSize, HeaderSize), ErrShortRecord)
	}

	header, err := readHeader(r)
	if err != nil {
		return 0, nil, err
	}

	return blockSize, header, nil
}

func readHeader(r io.Reader) (*Header, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	n, err := io.CopyN(buf, r, HeaderSize)
	if err != nil {
		return nil, truncated(err, "expected %d header bytes, only got %d", HeaderSize, n)
	}

	b := buf.Bytes()
	header := &Header{
		Version: binary.LittleEndian.Uint32(b[0:4]),
		Time:    binary.LittleEndian.Uint32(b[68:72]),
		Bits:    binary.LittleEndian.Uint32(b[72:76]),
		Nonce:   binary.LittleEndian.Uint32(b[76:80]),
	}
	copy(header.PrevBlockHash[:], b[4:36])
	copy(header.MerkleRoot[:], b[36:68])

	return header, nil
}

// WriteRecord writes one framed record: magic, payload length, header, then body. body is
// whatever follows the header in the payload (the serialized transactions).
func WriteRecord(w io.Writer, magic Magic, header Header, body []byte) error {
	prefix := make([]byte, 8)
	copy(prefix, magic[:])
	binary.LittleEndian.PutUint32(prefix[4:], uint32(HeaderSize+len(body)))

	for _, b := range [][]byte{prefix, header.Bytes(), body} {
		_, err := w.Write(b)
		if err != nil {
			return errors.Wrap(err, "writing record")
		}
	}
	return nil
}

// readRecordPrefix checks the magic bytes and returns the little-endian payload length.
// A stream that ends before the first magic byte returns io.EOF.
func readRecordPrefix(r io.Reader, magic Magic) (uint32, error) {
	err := readMagic(r, magic)
	if err != nil {
		return 0, err
	}

	return readRecordLength(r)
}

func readMagic(r io.Reader, magic Magic) error {
	b, err := read(r, len(magic))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return truncated(err, "magic bytes")
	}

	if !bytes.Equal(b, magic[:]) {
		return errors.Mark(errors.Newf("expected magic bytes %s, got %s", magic, hex.EncodeToString(b)), ErrBadMagic)
	}

	return nil
}

func readRecordLength(r io.Reader) (uint32, error) {
	blockSize, err := readUint32(r)
	if err != nil {
		return 0, truncated(err, "record length")
	}
	return blockSize, nil
}

// consumeUntilNextRecord consumes 0x00 bytes until it finds the next set of magic bytes.
// Block files are preallocated, so the tail of the last file is usually a run of zeros.
// Returns io.EOF if the stream ends inside the zeros.
func consumeUntilNextRecord(r io.Reader, magic Magic) error {
	var firstByte byte

	b, err := read(r, len(magic))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return truncated(err, "magic bytes")
	} else if bytes.Equal(b, magic[:]) {
		// exit fast for the most common case
		return nil
	}

	if !bytes.Equal(b, []byte{0, 0, 0, 0}) {
		return errors.Mark(errors.Newf("expected magic bytes %s, got %s", magic, hex.EncodeToString(b)), ErrBadMagic)
	}

	// continue consuming the 0x00 bytes one by one
	for {
		firstByte, err = readByte(r)
		if err != nil {
			return err
		}

		if firstByte != 0x00 {
			break
		}
	}

	// after getting through all of the 0x00 bytes, check again for magic bytes
	rest, err := read(r, len(magic)-1)
	if err != nil {
		return truncated(err, "magic bytes")
	}

	if firstByte != magic[0] || !bytes.Equal(magic[1:], rest) {
		return errors.Mark(errors.Newf("expected magic bytes %s, got %s", magic,
			hex.EncodeToString(append([]byte{firstByte}, rest...))), ErrBadMagic)
	}

	return nil
}

// truncated tags a short read inside a record. Only a read at a record boundary may end the
// stream cleanly, so io.EOF becomes io.ErrUnexpectedEOF here. Other read failures are
// wrapped without the mark.
func truncated(err error, format string, args ...interface{}) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrapf(err, format, args...)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrTruncated)
}

func readUint32(r io.Reader) (uint32, error) {
	buf, err := read(r, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func readByte(r io.Reader) (byte, error) {
	buf, err := read(r, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// read returns exactly numBytes bytes. io.EOF is only returned when nothing at all was read.
func read(r io.Reader, numBytes int) ([]byte, error) {
	b := make([]byte, numBytes)
	n, err := io.ReadFull(r, b)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "read")
		}
		return nil, errors.Wrapf(err, "expected to read %d bytes, only got %d", numBytes, n)
	}

	return b, nil
}
