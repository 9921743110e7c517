package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
)

const publishTimeout = 10 * time.Second

// channel is the part of *amqp.Channel the publisher uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends refresh events to a RabbitMQ topic exchange
type Publisher struct {
	conn       *amqp.Connection
	ch         channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher dials the broker and declares the exchange
func NewPublisher(cfg config.RabbitMQConfig, logger *zap.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("rabbitmq exchange is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", cfg.Exchange, err)
	}

	logger.Info("RabbitMQ publisher ready",
		zap.String("exchange", cfg.Exchange),
		zap.String("routing_key", cfg.RoutingKey),
	)
	return newPublisher(conn, ch, cfg.Exchange, cfg.RoutingKey, logger), nil
}

func newPublisher(conn *amqp.Connection, ch channel, exchange, routingKey string, logger *zap.Logger) *Publisher {
	return &Publisher{
		conn:       conn,
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}
}

// Notify publishes the event as a persistent JSON message
func (p *Publisher) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.RefreshedAt,
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.ch.PublishWithContext(publishCtx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish refresh event for %s: %w", event.UserID, err)
	}

	p.logger.Debug("Refresh event published", zap.String("user_id", event.UserID))
	return nil
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	var firstErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
