package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCompress_SmallPayloadSkipped(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	data := []byte(`{"id":1}`)
	blob, ratio, compressed := c.Compress(data)

	if compressed {
		t.Error("Compress() compressed a payload below MinCompressSize")
	}
	if ratio != 1.0 {
		t.Errorf("ratio = %v, want 1.0", ratio)
	}
	if !bytes.Equal(blob, data) {
		t.Error("uncompressed blob should be the input")
	}
}

func TestCompress_LargeRepetitivePayload(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Highly repetitive JSON compresses far below MaxAcceptRatio.
	data := []byte(strings.Repeat(`{"name":"cardiology","parent":42},`, 200))
	blob, ratio, compressed := c.Compress(data)

	if !compressed {
		t.Fatal("Compress() did not compress a large repetitive payload")
	}
	if ratio >= MaxAcceptRatio {
		t.Errorf("ratio = %v, want < %v", ratio, MaxAcceptRatio)
	}
	if len(blob) >= len(data) {
		t.Errorf("blob size = %d, want < %d", len(blob), len(data))
	}

	out, err := c.Decompress(blob)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("Decompress() did not round-trip")
	}
}

func TestCompress_DensePayloadSkipped(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Pseudo-random bytes do not compress; the raw payload must be kept.
	data := make([]byte, 4096)
	state := uint64(0x9e3779b97f4a7c15)
	for i := range data {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		data[i] = byte(state)
	}

	blob, _, compressed := c.Compress(data)
	if compressed {
		t.Error("Compress() compressed incompressible data")
	}
	if !bytes.Equal(blob, data) {
		t.Error("dense payload should be stored raw")
	}
}

func TestDecompress_GarbageFails(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Decompress([]byte("not a zstd frame"))
	if !errors.Is(err, ErrDecompress) {
		t.Errorf("Decompress() error = %v, want ErrDecompress", err)
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	a := Checksum([]byte("hello"))
	b := Checksum([]byte("hello"))
	if a != b {
		t.Errorf("Checksum not deterministic: %d != %d", a, b)
	}

	if Checksum([]byte("hello")) == Checksum([]byte("hellp")) {
		t.Error("Checksum collision on single-byte difference")
	}
}
