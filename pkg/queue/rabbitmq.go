package queue

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConnectRabbitMQ dials uri and opens one channel. name shows up as the
// connection name in the broker's management UI.
func ConnectRabbitMQ(uri, name string) (*amqp.Connection, *amqp.Channel, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(name)
	conn, err := amqp.DialConfig(uri, amqp.Config{
		Heartbeat:  10 * time.Second,
		Properties: props,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return conn, ch, nil
}

// DeclareTopicExchange declares a durable topic exchange.
func DeclareTopicExchange(ch *amqp.Channel, name string) error {
	err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	return nil
}

// BindQueue declares a durable queue and binds it to exchange for every
// routing key pattern given.
func BindQueue(ch *amqp.Channel, queueName, exchange string, patterns ...string) error {
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	for _, p := range patterns {
		if err := ch.QueueBind(q.Name, p, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to %s: %w", queueName, p, err)
		}
	}
	return nil
}
