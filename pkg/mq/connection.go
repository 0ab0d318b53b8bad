package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// LedgerExchange carries one message per journal entry, routed by entry kind.
const LedgerExchange = "ledger.events"

const heartbeat = 10 * time.Second

// NewConnection dials RabbitMQ. name shows up as the connection name in the broker's management UI.
func NewConnection(url, name string) (*amqp091.Connection, error) {
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(name)
	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ as %s: %w", name, err)
	}
	return conn, nil
}

// DeclareLedgerExchange declares the durable topic exchange journal entries are published to.
func DeclareLedgerExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		LedgerExchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}
