package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer encodes header, fixed-size values and sections in little-endian
// order.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader stamps header with the current magic and version and writes it.
func (w *Writer) WriteHeader(header *FileHeader) error {
	header.Magic = MagicNumber
	header.Version = Version
	return binary.Write(w.w, binary.LittleEndian, header)
}

// WriteValue writes a fixed-size value or a slice of them.
func (w *Writer) WriteValue(v any) error {
	return binary.Write(w.w, binary.LittleEndian, v)
}

// WriteBytes writes b as a section prefixed with its uint32 length.
func (w *Writer) WriteBytes(b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return fmt.Errorf("section of %d bytes does not fit a uint32 length", len(b))
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.w.Write(b)
	return err
}

func (w *Writer) WriteFloat32Slice(s []float32) error { return writeWords(w.w, s) }

func (w *Writer) WriteInt32Slice(s []int32) error { return writeWords(w.w, s) }

func (w *Writer) WriteUint32Slice(s []uint32) error { return writeWords(w.w, s) }

// Reader decodes what Writer wrote.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadHeader reads a header and checks its magic, version and kind. A kind
// of 0 accepts any payload.
func (r *Reader) ReadHeader(kind uint8) (*FileHeader, error) {
	var h FileHeader
	if err := binary.Read(r.r, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	switch {
	case h.Magic != MagicNumber:
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	case h.Version != Version:
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, h.Version)
	case kind != 0 && h.Kind != kind:
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKind, h.Kind, kind)
	}
	return &h, nil
}

// ReadValue reads a fixed-size value or a slice of them.
func (r *Reader) ReadValue(v any) error {
	return binary.Read(r.r, binary.LittleEndian, v)
}

// ReadBytes reads a length-prefixed section. Sections longer than limit are
// rejected before anything is allocated.
func (r *Reader) ReadBytes(limit int) ([]byte, error) {
	var n uint32
	if err := binary.Read(r.r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if int64(n) > int64(limit) {
		return nil, fmt.Errorf("section of %d bytes exceeds limit %d", n, limit)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Reader) ReadFloat32Slice(count int) ([]float32, error) {
	return readWords[float32](r.r, count)
}

func (r *Reader) ReadInt32Slice(count int) ([]int32, error) { return readWords[int32](r.r, count) }

func (r *Reader) ReadUint32Slice(count int) ([]uint32, error) { return readWords[uint32](r.r, count) }
