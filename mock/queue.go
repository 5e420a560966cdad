package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// QueueService is a testify mock of newsletter.QueueService.
type QueueService struct {
	mock.Mock
}

func (m *QueueService) Publish(ctx context.Context, topic string, body []byte) error {
	args := m.Called(ctx, topic, body)
	return args.Error(0)
}

func (m *QueueService) Consume(ctx context.Context, topic string) (<-chan []byte, error) {
	args := m.Called(ctx, topic)
	ch, _ := args.Get(0).(<-chan []byte)
	return ch, args.Error(1)
}
