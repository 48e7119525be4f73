package api

import (
	"github.com/bytedance/sonic"
)

// JSONCodec encodes RPC messages as plain JSON. It registers under the
// name "json" so clients and handlers negotiate application/json.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return sonic.Unmarshal(data, v)
}
