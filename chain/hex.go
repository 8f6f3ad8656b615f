package chain

import (
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

// ReverseBytes reverses a byte slice. useful for switching endian-ness
func ReverseBytes(b []byte) []byte {
	r := make([]byte, len(b))
	for left, right := 0, len(b)-1; left <= right; left, right = left+1, right-1 {
		r[left], r[right] = b[right], b[left]
	}
	return r
}

// ReversedHex hex-encodes b last byte first. Hashes are displayed this way.
func ReversedHex(b []byte) string {
	return hex.EncodeToString(ReverseBytes(b))
}

// BytesFromReversedHex undoes ReversedHex.
func BytesFromReversedHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return ReverseBytes(b), nil
}
