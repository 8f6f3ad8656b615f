package chain

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// DefaultBlockFile is the first block file written by a node.
const DefaultBlockFile = "blk00000.dat"

type Config struct {
	BlockFile string // path to the block file. "" = DefaultBlockFile
	Magic     Magic  // zero value = MainNetMagic
}

// HeaderAt skips height whole records and decodes the header of the next one. Heights are
// 0-indexed positions in the stream, starting wherever the cursor is.
func HeaderAt(rs io.ReadSeeker, magic Magic, height int) (*Header, error) {
	if height < 0 {
		return nil, errors.Mark(errors.Newf("negative height %d", height), ErrHeightOutOfRange)
	}

	for i := 0; i < height; i++ {
		err := SkipRecord(rs, magic)
		if err != nil {
			return nil, endOfRecords(err, i, height)
		}
	}

	header, err := ReadHeader(rs, magic)
	if err != nil {
		return nil, endOfRecords(err, height, height)
	}

	return header, nil
}

// endOfRecords marks errors that mean the stream ran out before reaching height.
func endOfRecords(err error, record, height int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, ErrTruncated) {
		return errors.Mark(errors.Wrapf(err, "stream ends at record %d, wanted height %d", record, height), ErrHeightOutOfRange)
	}
	return errors.WithMessagef(err, "record %d", record)
}

// Scan decodes the header of every record in the stream and hands it to fn along with its
// height. The stream ends cleanly at EOF on a record boundary or when only zero padding is
// left. On failure the number of headers already handed to fn, including one fn rejected,
// is returned with the error.
func Scan(rs io.ReadSeeker, magic Magic, fn func(height int, header *Header) error) (int, error) {
	for height := 0; ; height++ {
		err := consumeUntilNextRecord(rs, magic)
		if err != nil {
			if errors.Is(err, io.EOF) {
				logrus.Debugf("end of records after %d blocks", height)
				return height, nil
			}
			return height, errors.WithMessagef(err, "record %d", height)
		}

		blockSize, header, err := readLengthAndHeader(rs)
		if err != nil {
			return height, errors.WithMessagef(err, "record %d", height)
		}

		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logrus.Debugf("block %d: %d bytes, hash %s", height, blockSize, header.BlockHash())
		}
		if height > 0 && height%10000 == 0 {
			logrus.Infof("block %dk", height/1000)
		}

		err = fn(height, header)
		if err != nil {
			return height + 1, err
		}

		err = skip(rs, int64(blockSize)-HeaderSize)
		if err != nil {
			return height + 1, errors.WithMessagef(err, "record %d", height)
		}
	}
}

// BlockFile is a single block file opened for reading.
type BlockFile struct {
	filename string
	magic    Magic

	file   *os.File
	closed bool
}

func Open(config Config) (*BlockFile, error) {
	if config.BlockFile == "" {
		config.BlockFile = DefaultBlockFile
	}
	if config.Magic == (Magic{}) {
		config.Magic = MainNetMagic
	}

	file, err := os.OpenFile(config.BlockFile, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrap(err, "opening block file")
	}

	return &BlockFile{filename: config.BlockFile, magic: config.Magic, file: file}, nil
}

func (bf BlockFile) Filename() string {
	return bf.filename
}

func (bf *BlockFile) Offset() (int64, error) {
	offset, err := bf.file.Seek(0, io.SeekCurrent)
	return offset, errors.Wrap(err, "file offset")
}

func (bf *BlockFile) Close() error {
	if bf.closed {
		return nil
	}

	bf.closed = true

	err := bf.file.Close()
	return errors.Wrap(err, "")
}

// HeaderAt walks the file from the beginning to the header at height.
func (bf *BlockFile) HeaderAt(height int) (*Header, error) {
	err := bf.rewind()
	if err != nil {
		return nil, err
	}

	header, err := HeaderAt(bf.file, bf.magic, height)
	if err != nil {
		return nil, bf.withOffset(err)
	}
	return header, nil
}

// Scan runs Scan over the whole file.
func (bf *BlockFile) Scan(fn func(height int, header *Header) error) (int, error) {
	err := bf.rewind()
	if err != nil {
		return 0, err
	}

	count, err := Scan(bf.file, bf.magic, fn)
	if err != nil {
		return count, bf.withOffset(err)
	}
	return count, nil
}

func (bf *BlockFile) rewind() error {
	if bf.closed {
		return errors.New("blockfile closed")
	}
	_, err := bf.file.Seek(0, io.SeekStart)
	return errors.Wrap(err, "rewinding block file")
}

func (bf *BlockFile) withOffset(err error) error {
	offset, offErr := bf.Offset()
	if offErr != nil {
		return errors.WithMessagef(err, "file %s", bf.filename)
	}
	return errors.WithMessagef(err, "file %s, offset %d", bf.filename, offset)
}
