package pkgkafka

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type KafkaProducer struct {
	producer *kafka.Producer
	cfg      *KafkaConfig
}

func NewKafkaProducer(cfg *KafkaConfig) (*KafkaProducer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Host,
		"acks":               cfg.Acks,
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	// delivery reports go to per-message channels; this only sees client level events
	go func() {
		for e := range p.Events() {
			if ev, ok := e.(kafka.Error); ok {
				logrus.WithFields(logrus.Fields{
					"code":  ev.Code(),
					"fatal": ev.IsFatal(),
				}).WithError(ev).Error("KAFKA:PRODUCER_ERROR")
			}
		}
	}()

	return &KafkaProducer{
		producer: p,
		cfg:      cfg,
	}, nil
}

// Produce sends one message and waits for the broker to acknowledge it.
func (p *KafkaProducer) Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error {
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	deliveryCH := make(chan kafka.Event, 1)
	if err := p.producer.Produce(msg, deliveryCH); err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryCH:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		logrus.WithFields(logrus.Fields{
			"TOPIC_PRTN": m.TopicPartition,
		}).Debug("KAFKA:DELIVERED")
		return nil
	}
}

func (p *KafkaProducer) Close() {
	if remaining := p.producer.Flush(p.cfg.FlushTimeoutMs); remaining > 0 {
		logrus.WithField("remaining", remaining).Warn("KAFKA:FLUSH_INCOMPLETE")
	}
	p.producer.Close()
}
