package pkgkafka

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoEncoder carries payloads as google.protobuf.Struct messages.
type ProtoEncoder struct {
	msgEncoderType KafkaEncoder
}

func NewProtoEncoder() *ProtoEncoder {
	return &ProtoEncoder{
		msgEncoderType: KafkaEncoder_PROTO,
	}
}

func (e *ProtoEncoder) Encode(payload json.RawMessage) ([]byte, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to read proto payload: %w", err)
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build proto struct: %w", err)
	}
	b, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proto message: %w", err)
	}
	return b, nil
}

func (e *ProtoEncoder) Decode(data []byte) (json.RawMessage, error) {
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("Deserialization error: %w", err)
	}
	b, err := json.Marshal(msg.AsMap())
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func (e *ProtoEncoder) GetType() KafkaEncoder {
	return e.msgEncoderType
}
