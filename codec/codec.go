// Package codec encodes the metadata section of index snapshots.
//
// A snapshot records the name of the codec that wrote it, so it can be
// opened whatever Default is set to at read time.
package codec

// Codec marshals snapshot metadata. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly written snapshots.
var Default Codec = Msgpack{}

var builtin = []Codec{JSON{}, Msgpack{}, CBOR{}}

// ByName looks up a built-in codec.
func ByName(name string) (Codec, bool) {
	for _, c := range builtin {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Names lists the built-in codecs in a stable order.
func Names() []string {
	names := make([]string, len(builtin))
	for i, c := range builtin {
		names[i] = c.Name()
	}
	return names
}
