package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// codecName replaces Connect's protojson codec, so clients keep sending
// application/json.
const codecName = "json"

// jsonCodec marshals plain Go structs with encoding/json.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSON configures a Connect client to talk to these handlers.
func WithJSON() connect.ClientOption {
	return connect.WithCodec(jsonCodec{})
}
