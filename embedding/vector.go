// Package embedding serves word vectors from the sharded word2vec dataset.
package embedding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Dimension is the length of every stored vector.
const Dimension = 300

const blobSize = Dimension * 4

var (
	// ErrNotFound is returned for a word that has no vector.
	ErrNotFound = errors.New("word not found")

	// ErrNotLoaded is returned when the store is queried before loading finished.
	ErrNotLoaded = errors.New("embedding store not loaded")

	// ErrMalformed is returned for shard rows that cannot be decoded.
	ErrMalformed = errors.New("malformed embedding data")
)

// Vector is a word embedding. It must not be modified once loaded.
type Vector []float32

// DecodeVector decodes a blob of Dimension little-endian float32 values.
func DecodeVector(blob []byte) (Vector, error) {
	if len(blob) != blobSize {
		return nil, fmt.Errorf("%w: vector blob is %d bytes, want %d", ErrMalformed, len(blob), blobSize)
	}
	vec := make(Vector, Dimension)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

// EncodeVector is the inverse of DecodeVector.
func EncodeVector(vec Vector) ([]byte, error) {
	if len(vec) != Dimension {
		return nil, fmt.Errorf("%w: vector has %d values, want %d", ErrMalformed, len(vec), Dimension)
	}
	buf := make([]byte, blobSize)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf, nil
}
