package pkgkafka

import (
	"encoding/json"
	"fmt"

	goavro "github.com/linkedin/goavro/v2"
)

// OrderCreatedAvroSchema describes the order_created payload.
const OrderCreatedAvroSchema = `{
	"type": "record",
	"name": "OrderCreated",
	"namespace": "orders",
	"fields": [
		{"name": "order_id", "type": "string"},
		{"name": "customer_id", "type": "string"},
		{"name": "total", "type": "double"},
		{"name": "products", "type": {"type": "array", "items": {
			"type": "record",
			"name": "OrderCreatedLine",
			"fields": [
				{"name": "product_id", "type": "string"},
				{"name": "price", "type": "double"},
				{"name": "quantity", "type": "long"}
			]
		}}},
		{"name": "created_at", "type": "string"}
	]
}`

type AvroEncoder struct {
	msgEncoderType KafkaEncoder
	codec          *goavro.Codec
}

func NewAvroEncoder(schema string) (*AvroEncoder, error) {
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to parse avro schema: %w", err)
	}
	return &AvroEncoder{
		msgEncoderType: KafkaEncoder_AVRO,
		codec:          codec,
	}, nil
}

func (e *AvroEncoder) Encode(payload json.RawMessage) ([]byte, error) {
	native, _, err := e.codec.NativeFromTextual(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to read avro datum: %w", err)
	}
	b, err := e.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to encode avro datum: %w", err)
	}
	return b, nil
}

func (e *AvroEncoder) Decode(data []byte) (json.RawMessage, error) {
	native, _, err := e.codec.NativeFromBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode avro datum: %w", err)
	}
	textual, err := e.codec.TextualFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to render avro datum: %w", err)
	}
	return json.RawMessage(textual), nil
}

func (e *AvroEncoder) GetType() KafkaEncoder {
	return e.msgEncoderType
}
