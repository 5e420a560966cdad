package newsletter

import "context"

// QueueService publishes and consumes raw messages on a named topic.
type QueueService interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Consume(ctx context.Context, topic string) (<-chan []byte, error)
}
