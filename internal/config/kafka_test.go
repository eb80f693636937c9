package config

import "testing"

func TestKafkaBrokerURLs(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	if got := kafkaBrokerURLs(KafkaConfig{}); len(got) != 1 || got[0] != "localhost:9092" {
		t.Errorf("default brokers = %v", got)
	}
	if got := kafkaBrokerURLs(KafkaConfig{Brokers: []string{"broker1:9092"}}); got[0] != "broker1:9092" {
		t.Errorf("configured brokers = %v", got)
	}

	// The env var wins over the config.
	t.Setenv("KAFKA_BROKERS", "env1:9092,env2:9092")
	got := kafkaBrokerURLs(KafkaConfig{Brokers: []string{"broker1:9092"}})
	if len(got) != 2 || got[0] != "env1:9092" || got[1] != "env2:9092" {
		t.Errorf("env brokers = %v", got)
	}
}

func TestNewKafkaWriter(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	w := NewKafkaWriter(KafkaConfig{Brokers: []string{"broker1:9092"}}, "sales-topic")
	if w.Topic != "sales-topic" {
		t.Errorf("topic = %q", w.Topic)
	}
	if w.Addr == nil {
		t.Error("writer has no address")
	}
}
