package app

import (
	"github.com/wagslane/go-rabbitmq"
)

func (a *App) setupConn() (*rabbitmq.Conn, error) {
	conn, err := rabbitmq.NewConn(
		a.cfg.RabbitMQ.Address(),
		rabbitmq.WithConnectionOptionsLogging,
	)
	if err != nil {
		a.l.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}

	a.l.Info().Str("host", a.cfg.RabbitMQ.Host).Msg("connected to RabbitMQ")
	return conn, nil
}

// setupPublisher declares the durable topic exchange enriched batches go to.
func (a *App) setupPublisher(conn *rabbitmq.Conn) (*rabbitmq.Publisher, error) {
	publisher, err := rabbitmq.NewPublisher(
		conn,
		rabbitmq.WithPublisherOptionsExchangeName(a.cfg.Relay.Exchange),
		rabbitmq.WithPublisherOptionsExchangeKind("topic"),
		rabbitmq.WithPublisherOptionsExchangeDeclare,
		rabbitmq.WithPublisherOptionsExchangeDurable,
		rabbitmq.WithPublisherOptionsLogging,
	)
	if err != nil {
		return nil, err
	}

	publisher.NotifyReturn(func(r rabbitmq.Return) {
		a.l.Warn().
			Str("routing_key", r.RoutingKey).
			Int("reply_code", int(r.ReplyCode)).
			Str("reply_text", r.ReplyText).
			Msg("batch returned unroutable by broker")
	})

	return publisher, nil
}
