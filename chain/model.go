package chain

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/lbryio/lbcd/chaincfg/chainhash"
)

// HeaderSize is the serialized size of a block header. It is the first thing in every
// record's payload.
const HeaderSize = 80

// Header is a decoded block header. Hashes are kept in the byte order they are stored in;
// use String() on them for the usual display order.
type Header struct {
	Version       uint32
	PrevBlockHash chainhash.Hash
	MerkleRoot    chainhash.Hash
	Time          uint32
	Bits          uint32
	Nonce         uint32
}

// Bytes serializes the header back into its 80-byte on-disk form.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Version)
	copy(b[4:36], h.PrevBlockHash[:])
	copy(b[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(b[68:72], h.Time)
	binary.LittleEndian.PutUint32(b[72:76], h.Bits)
	binary.LittleEndian.PutUint32(b[76:80], h.Nonce)
	return b
}

// BlockHash is the double sha256 of the serialized header.
func (h Header) BlockHash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Bytes())
}

func (h Header) Timestamp() time.Time {
	return time.Unix(int64(h.Time), 0)
}

func (h Header) String() string {
	return fmt.Sprintf("version=%d prev=%s merkle=%s time=%d bits=%08x nonce=%d",
		h.Version, h.PrevBlockHash, h.MerkleRoot, h.Time, h.Bits, h.Nonce)
}
