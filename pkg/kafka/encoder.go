package pkgkafka

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type KafkaEncoder string

const (
	KafkaEncoder_JSON  KafkaEncoder = "json"
	KafkaEncoder_AVRO  KafkaEncoder = "avro"
	KafkaEncoder_PROTO KafkaEncoder = "proto"
)

// MsgEncoder turns a JSON document into the wire format of a topic and back.
type MsgEncoder interface {
	Encode(payload json.RawMessage) ([]byte, error)
	Decode(data []byte) (json.RawMessage, error)
	GetType() KafkaEncoder
}

// NewMsgEncoder picks the encoder for encoderType. avroSchema is only used for avro.
func NewMsgEncoder(encoderType KafkaEncoder, avroSchema string) (MsgEncoder, error) {
	switch encoderType {
	case KafkaEncoder_AVRO:
		return NewAvroEncoder(avroSchema)
	case KafkaEncoder_PROTO:
		return NewProtoEncoder(), nil
	case KafkaEncoder_JSON, "":
		return NewJsonEncoder(), nil
	default:
		return nil, fmt.Errorf("unknown message encoder %q", encoderType)
	}
}

type JsonEncoder struct {
	msgEncoderType KafkaEncoder
}

func NewJsonEncoder() *JsonEncoder {
	return &JsonEncoder{
		msgEncoderType: KafkaEncoder_JSON,
	}
}

func (e *JsonEncoder) Encode(payload json.RawMessage) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := json.Compact(buf, payload); err != nil {
		return nil, fmt.Errorf("failed to encode json message: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *JsonEncoder) Decode(data []byte) (json.RawMessage, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("failed to decode json message: invalid document")
	}
	return json.RawMessage(data), nil
}

func (e *JsonEncoder) GetType() KafkaEncoder {
	return e.msgEncoderType
}
