package service

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
)

// SaleProducer publishes sale events to the sales topic, where the
// consumer merges them into the canonical dataset. Keying by product name
// keeps events for one product in order.
type SaleProducer struct {
	writer *kafka.Writer
}

func NewSaleProducer(writer *kafka.Writer) *SaleProducer {
	return &SaleProducer{writer: writer}
}

func (p *SaleProducer) Publish(ctx context.Context, ev entity.SaleEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Product),
		Value: payload,
	})
}
