package service

import (
	"bytes"
	"encoding/json"
)

// JSONCodec is a Connect codec for plain Go structs. It replaces Connect's
// default "json" codec, which only accepts generated protobuf messages.
// Clients must pass it with connect.WithCodec as well.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero value.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// charsetJSONCodec serves clients that send "application/json; charset=utf-8".
type charsetJSONCodec struct{ JSONCodec }

func (charsetJSONCodec) Name() string { return "json; charset=utf-8" }
