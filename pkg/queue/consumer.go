package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumeMessages registers an auto-ack consumer on queueName.
func ConsumeMessages(ch *amqp.Channel, queueName string) (<-chan amqp.Delivery, error) {
	msgs, err := ch.Consume(queueName, "", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return msgs, nil
}

// Decode runs handle for every delivery whose body unmarshals into T, until
// ctx is done or msgs is closed. Malformed bodies are passed to onError and skipped.
func Decode[T any](ctx context.Context, msgs <-chan amqp.Delivery, handle func(T), onError func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			var v T
			if err := json.Unmarshal(d.Body, &v); err != nil {
				if onError != nil {
					onError(fmt.Errorf("decode %s: %w", d.RoutingKey, err))
				}
				continue
			}
			handle(v)
		}
	}
}
