package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"
)

// ErrUnalignedAccess is returned when a slice cannot be viewed as raw bytes.
var ErrUnalignedAccess = errors.New("unaligned memory access detected")

// hostLittleEndian is true when the in-memory layout of a word slice is
// already the on-disk layout.
var hostLittleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

type word interface {
	~float32 | ~int32 | ~uint32
}

// writeWords writes s in little-endian order. On little-endian hosts the
// slice memory is written directly.
func writeWords[T word](w io.Writer, s []T) error {
	if len(s) == 0 {
		return nil
	}
	if !hostLittleEndian {
		return binary.Write(w, binary.LittleEndian, s)
	}
	p := unsafe.Pointer(&s[0])
	if uintptr(p)%4 != 0 {
		return fmt.Errorf("%w: %T slice at 0x%x", ErrUnalignedAccess, s, uintptr(p))
	}
	_, err := w.Write(unsafe.Slice((*byte)(p), len(s)*4))
	return err
}

// readWords reads count little-endian words.
func readWords[T word](r io.Reader, count int) ([]T, error) {
	if count == 0 {
		return nil, nil
	}
	s := make([]T, count)
	if !hostLittleEndian {
		if err := binary.Read(r, binary.LittleEndian, s); err != nil {
			return nil, err
		}
		return s, nil
	}
	if _, err := io.ReadFull(r, unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), count*4)); err != nil {
		return nil, err
	}
	return s, nil
}
