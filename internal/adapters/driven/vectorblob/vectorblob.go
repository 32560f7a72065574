// Package vectorblob encodes embedding vectors as compact little-endian
// float32 blobs for byte-oriented stores (SQLite BLOB columns, Redis values).
package vectorblob

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode packs v as 4 bytes per component.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// Decode unpacks a blob produced by Encode.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
