package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// TrailerSize is the size in bytes of the CRC32C trailer that closes every
// sealed payload.
const TrailerSize = 4

// Payloads are sealed with CRC32-Castagnoli. It catches torn writes and bit
// rot in stored snapshots; it is not a MAC.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ComputeChecksum returns the CRC32C of data.
func ComputeChecksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// ChecksumWriter hashes everything written through it. WriteTrailer then
// appends the sum to the underlying writer without hashing it.
type ChecksumWriter struct {
	w    io.Writer
	hash hash.Hash32
}

// NewChecksumWriter returns a ChecksumWriter over w.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{w: w, hash: crc32.New(castagnoli)}
}

// Write implements io.Writer.
func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.hash.Write(p[:n]) //nolint:errcheck // hash.Hash never fails
	return n, err
}

// Sum returns the checksum of the bytes written so far.
func (cw *ChecksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

// WriteTrailer seals the payload by writing Sum past the hash.
func (cw *ChecksumWriter) WriteTrailer() error {
	var b [TrailerSize]byte
	binary.LittleEndian.PutUint32(b[:], cw.Sum())
	_, err := cw.w.Write(b[:])
	return err
}

// ChecksumReader hashes everything read through it so that VerifyTrailer can
// check the sum written by ChecksumWriter.WriteTrailer.
type ChecksumReader struct {
	r    io.Reader
	hash hash.Hash32
}

// NewChecksumReader returns a ChecksumReader over r.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{r: r, hash: crc32.New(castagnoli)}
}

// Read implements io.Reader.
func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.hash.Write(p[:n]) //nolint:errcheck // hash.Hash never fails
	return n, err
}

// Sum returns the checksum of the bytes read so far.
func (cr *ChecksumReader) Sum() uint32 {
	return cr.hash.Sum32()
}

// Verify compares the running sum with expected.
func (cr *ChecksumReader) Verify(expected uint32) error {
	if actual := cr.Sum(); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// VerifyTrailer reads the trailer that follows the payload, bypassing the
// hash, and verifies it against the running sum.
func (cr *ChecksumReader) VerifyTrailer() error {
	var b [TrailerSize]byte
	if _, err := io.ReadFull(cr.r, b[:]); err != nil {
		return fmt.Errorf("read checksum trailer: %w", err)
	}
	return cr.Verify(binary.LittleEndian.Uint32(b[:]))
}

// Unseal checks the trailer of an in-memory sealed payload and returns the
// payload without it.
func Unseal(data []byte) ([]byte, error) {
	if len(data) < TrailerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the checksum trailer", ErrCorruptBlock, len(data))
	}
	payload := data[:len(data)-TrailerSize]
	want := binary.LittleEndian.Uint32(data[len(payload):])
	if got := ComputeChecksum(payload); got != want {
		return nil, &ChecksumMismatchError{Expected: want, Actual: got}
	}
	return payload, nil
}

// ChecksumMismatchError reports a payload whose trailer does not match its
// contents.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: stored 0x%08x, computed 0x%08x", e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err wraps a *ChecksumMismatchError.
func IsChecksumMismatch(err error) bool {
	var target *ChecksumMismatchError
	return errors.As(err, &target)
}
