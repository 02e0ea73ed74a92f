package notification

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iho/gotransfer/internal/domain"
)

// RabbitMQConfig configures RabbitMQSender.
type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQSender publishes notices as JSON to a topic exchange.
type RabbitMQSender struct {
	conn       *amqp.Connection
	channel    publishChannel
	exchange   string
	routingKey string
}

// NewRabbitMQSender dials RabbitMQ and declares the exchange.
func NewRabbitMQSender(cfg RabbitMQConfig) (*RabbitMQSender, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	sender := newRabbitMQSenderWithChannel(channel, cfg.Exchange, cfg.RoutingKey)
	sender.conn = conn

	return sender, nil
}

func newRabbitMQSenderWithChannel(ch publishChannel, exchange, routingKey string) *RabbitMQSender {
	return &RabbitMQSender{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
	}
}

// Send publishes one notice as a persistent message.
func (s *RabbitMQSender) Send(ctx context.Context, notice domain.Notice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    notice.ReferenceID,
		Timestamp:    notice.CreatedAt,
		Type:         "account.notice",
		Body:         body,
	}

	if err := s.channel.PublishWithContext(ctx, s.exchange, s.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}

	return nil
}

// Close closes the channel and the connection.
func (s *RabbitMQSender) Close() error {
	var err error
	if s.channel != nil {
		err = s.channel.Close()
	}
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
