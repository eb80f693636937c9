package config

import (
	"os"
	"strings"

	"github.com/segmentio/kafka-go"
)

func kafkaBrokerURLs(cfg KafkaConfig) []string {
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		return strings.Split(brokers, ",")
	}
	if len(cfg.Brokers) > 0 {
		return cfg.Brokers
	}
	return []string{"localhost:9092"}
}

// NewKafkaWriter builds a writer for publishing sale events.
func NewKafkaWriter(cfg KafkaConfig, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(kafkaBrokerURLs(cfg)...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaReader builds a reader for the sales topic consumer group.
func NewKafkaReader(cfg KafkaConfig, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkaBrokerURLs(cfg),
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
}
