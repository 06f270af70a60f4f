// Package image implements the DCPU-16 binary image format: a flat
// sequence of 16-bit words, big-endian, word N at offset 2N.
package image

import "github.com/pkg/errors"

// ErrOddLength is returned by Decode when given an odd number of bytes,
// which cannot represent a whole number of words. The format spec allows
// either rejecting or truncating an odd-length file; this package rejects.
var ErrOddLength = errors.New("image: odd-length binary image")

// Encode serializes words as big-endian bytes, high byte first.
func Encode(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[2*i] = byte(w >> 8)
		out[2*i+1] = byte(w)
	}
	return out
}

// Decode parses a big-endian binary image back into words. Word N is
// mem[N] when later loaded starting at address 0.
func Decode(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, ErrOddLength
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return words, nil
}
