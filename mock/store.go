package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quantonganh/newsletter"
)

// Store is a testify mock of newsletter.Store.
type Store struct {
	mock.Mock
}

func (m *Store) Subscribe(ctx context.Context, req *newsletter.SubscribeRequest) (*newsletter.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*newsletter.Response)
	return resp, args.Error(1)
}

func (m *Store) Unsubscribe(ctx context.Context, req *newsletter.UnsubscribeRequest) (*newsletter.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*newsletter.Response)
	return resp, args.Error(1)
}
