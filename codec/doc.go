// Package codec compresses cached payloads and computes integrity
// checksums.
//
// Compression is conditional: payloads below MinCompressSize, or payloads
// that do not compress well enough, are stored uncompressed. Checksums are
// fast non-cryptographic hashes meant to detect accidental corruption,
// not tampering.
package codec
