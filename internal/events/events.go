// Package events fans out "ledger changed" notifications to external
// consumers (the live dashboard). Publish failures are the caller's to
// log; they must never reach a user reply.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher notifies subscribers that a user's ledger changed.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, phone string) error
	Close() error
}

// LedgerChangedMessage is the wire payload. Consumers re-read the ledger
// themselves; the message only names who changed.
type LedgerChangedMessage struct {
	Phone     string    `json:"phone"`
	Timestamp time.Time `json:"timestamp"`
}

// AMQPPublisher publishes to a durable direct exchange.
type AMQPPublisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewAMQPPublisher(url, exchangeName, queueName string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p := &AMQPPublisher{conn: conn, channel: channel, exchangeName: exchangeName, queueName: queueName}
	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return p, nil
}

func (p *AMQPPublisher) setup() error {
	if err := p.channel.ExchangeDeclare(p.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := p.channel.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := p.channel.QueueBind(p.queueName, p.queueName, p.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) PublishLedgerChanged(ctx context.Context, phone string) error {
	body, err := json.Marshal(LedgerChangedMessage{Phone: phone, Timestamp: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.channel.PublishWithContext(ctx, p.exchangeName, p.queueName, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher is used when no AMQP broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLedgerChanged(context.Context, string) error { return nil }
func (NopPublisher) Close() error                                      { return nil }
