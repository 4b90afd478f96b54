package codec

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

const (
	// MinCompressSize is the minimum payload size worth compressing.
	MinCompressSize = 1024

	// MaxAcceptRatio is the largest compressed/raw ratio that is still
	// worth storing compressed. Above it the raw payload is kept.
	MaxAcceptRatio = 0.8
)

// ErrDecompress is returned when a stored blob cannot be decompressed.
// Callers treat it as entry corruption.
var ErrDecompress = errors.New("codec: decompress failed")

// Codec compresses and decompresses cache payloads.
//
// Contract:
// - Concurrency: safe for concurrent use (EncodeAll/DecodeAll are
//   stateless with respect to the caller).
// - Errors: Compress never errors; it reports whether compression was
//   applied. Decompress returns ErrDecompress on any failure.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New creates a Codec with default zstd settings.
func New() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("codec: create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: create decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Compress compresses data when it is large enough and compresses well
// enough. Returns the blob to store, the achieved ratio, and whether
// compression was applied. When compression is not applied the returned
// blob is data itself.
func (c *Codec) Compress(data []byte) (blob []byte, ratio float64, compressed bool) {
	if len(data) < MinCompressSize {
		return data, 1.0, false
	}

	out := c.enc.EncodeAll(data, make([]byte, 0, len(data)/2))
	ratio = float64(len(out)) / float64(len(data))
	if ratio >= MaxAcceptRatio {
		// Dense payload, not worth the CPU on read.
		return data, 1.0, false
	}
	return out, ratio, true
}

// Decompress restores a compressed blob.
func (c *Codec) Decompress(blob []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	return out, nil
}

// Checksum computes a fast integrity hash of a blob.
func Checksum(blob []byte) uint64 {
	return xxhash.Sum64(blob)
}
