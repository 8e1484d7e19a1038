package persistence

import "errors"

const (
	// MagicNumber identifies metricdp binary files (ASCII: "MDP0")
	MagicNumber = 0x4D445030
	// Version is the current file format version (v1.0.0)
	Version = 0x00010000

	// Payload kinds
	KindForest   = 1
	KindSnapshot = 2
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidKind    = errors.New("invalid payload kind")
)

// FileHeader is the 32-byte header at the start of every persisted payload.
type FileHeader struct {
	Magic       uint32 // 0x4D445030 ("MDP0")
	Version     uint32 // File format version
	Kind        uint8  // 1=Forest, 2=Snapshot
	Compression uint8  // Compression of the body that follows
	Metric      uint8  // distance.Metric of the payload
	Padding1    uint8
	Dimension   uint32 // Vector dimensionality
	Count       uint64 // Kind specific element count (trees, rows)
	Reserved    [8]byte
}
