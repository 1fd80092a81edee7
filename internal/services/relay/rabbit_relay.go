package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/pkg/messaging"
)

const TransportAMQP = "amqp"

type publisher interface {
	PublishWithContext(ctx context.Context, data []byte, routingKeys []string,
		optionFuncs ...func(*rabbitmq.PublishOptions)) error
}

// RabbitRelay publishes enriched batches to a RabbitMQ exchange.
type RabbitRelay struct {
	pub        publisher
	exchange   string
	routingKey string
	timeout    time.Duration
	logger     zerolog.Logger
}

func NewRabbitRelay(
	pub publisher,
	exchange, routingKey string,
	timeout time.Duration,
	logger zerolog.Logger,
) *RabbitRelay {
	if exchange == "" {
		exchange = messaging.ExchangeName
	}
	if routingKey == "" {
		routingKey = messaging.EnrichedRoutingKey
	}
	return &RabbitRelay{
		pub:        pub,
		exchange:   exchange,
		routingKey: routingKey,
		timeout:    timeout,
		logger:     logger.With().Str("component", "RabbitRelay").Logger(),
	}
}

func (r *RabbitRelay) Transport() string {
	return TransportAMQP
}

func (r *RabbitRelay) Send(ctx context.Context, records []models.EnrichedRecord) error {
	body, err := json.Marshal(records)
	if err != nil {
		return &models.RelayError{Transport: TransportAMQP, Err: fmt.Errorf("marshal: %w", err)}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.pub.PublishWithContext(
		ctx,
		body,
		[]string{r.routingKey},
		rabbitmq.WithPublishOptionsContentType(messaging.ContentTypeJSON),
		rabbitmq.WithPublishOptionsMandatory,
		rabbitmq.WithPublishOptionsPersistentDelivery,
		rabbitmq.WithPublishOptionsExchange(r.exchange),
		rabbitmq.WithPublishOptionsHeaders(rabbitmq.Table{
			messaging.RecordCountHeader: int64(len(records)),
		}),
	); err != nil {
		r.logger.Error().
			Ctx(ctx).
			Str("exchange", r.exchange).
			Str("routing_key", r.routingKey).
			Err(err).
			Msg("failed to publish batch")
		return &models.RelayError{Transport: TransportAMQP, Err: err}
	}

	r.logger.Info().
		Ctx(ctx).
		Str("exchange", r.exchange).
		Str("routing_key", r.routingKey).
		Int("records", len(records)).
		Msg("batch published")
	return nil
}
