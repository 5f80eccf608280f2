package lifecycle

import "context"

// EventPublisher delivers lifecycle events to the notification collaborator.
// *queue.Publisher satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey string, payload interface{}) error
}

type nopPublisher struct{}

func (nopPublisher) PublishEvent(context.Context, string, interface{}) error { return nil }
