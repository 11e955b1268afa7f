package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto" // register the default proto codec first
	"google.golang.org/protobuf/proto"
)

func init() {
	encoding.RegisterCodec(codec{})
}

// codec replaces the "proto" codec: gate messages are JSON, every other
// message (health checks, reflection) goes through protobuf.
type codec struct{}

func (codec) Name() string { return "proto" }

func (codec) Marshal(v any) ([]byte, error) {
	if _, ok := v.(gateMsg); ok {
		return json.Marshal(v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("hostgate codec: unsupported message type %T", v)
}

func (codec) Unmarshal(data []byte, v any) error {
	if _, ok := v.(gateMsg); ok {
		if len(data) == 0 {
			return nil
		}
		return json.Unmarshal(data, v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("hostgate codec: unsupported message type %T", v)
}
