package consumer

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/service"
)

// Consumer streams sale events from Kafka into the canonical dataset, so
// the analysis keeps up without waiting for the next report upload.
type Consumer struct {
	datasets *service.DatasetService
	reader   *kafka.Reader
}

func NewConsumer(datasets *service.DatasetService, reader *kafka.Reader) *Consumer {
	return &Consumer{datasets: datasets, reader: reader}
}

// Start reads sale events until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}
		c.processMessage(ctx, msg)
	}
}

// processMessage merges one sale event into the dataset. Negative figures
// never enter the dataset, matching the ingestion rules.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	var ev entity.SaleEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		log.Error().Msgf("Error unmarshalling sale event: %v", err)
		return
	}

	if ev.Quantity < 0 || ev.Revenue < 0 || ev.UnitCost < 0 || ev.UnitPrice < 0 {
		log.Warn().Msgf("Dropping sale event with negative figures for %s", ev.Product)
		return
	}

	if err := c.datasets.Append(ctx, ev); err != nil {
		log.Error().Msgf("Error appending sale of %s: %v", ev.Product, err)
	}
}
