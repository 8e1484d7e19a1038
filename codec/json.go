package codec

import gojson "github.com/goccy/go-json"

// JSON encodes snapshot metadata as JSON using github.com/goccy/go-json.
// Its output is plain JSON, so metadata written with it stays readable with
// any tool.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }
