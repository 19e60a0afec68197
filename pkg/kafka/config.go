package pkgkafka

import (
	"os"
	"strconv"
)

type KafkaConfig struct {
	Host           string
	OrderTopic     string
	MsgEncoderType KafkaEncoder
	Acks           string
	// FlushTimeoutMs bounds how long Close waits for in-flight messages.
	FlushTimeoutMs int
}

func NewKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Host:           getEnv("KAFKA_HOST", "localhost"),
		OrderTopic:     getEnv("KAFKA_ORDER_TOPIC", "orders.order_created"),
		MsgEncoderType: KafkaEncoder(getEnv("KAFKA_MSG_ENCODER", string(KafkaEncoder_JSON))),
		Acks:           getEnv("KAFKA_ACKS", "all"),
		FlushTimeoutMs: getEnvInt("KAFKA_FLUSH_TIMEOUT_MS", 5000),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}
