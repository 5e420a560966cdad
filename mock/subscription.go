package mock

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/quantonganh/newsletter"
)

// SubscriberService is a testify mock of newsletter.SubscriberService.
type SubscriberService struct {
	mock.Mock
}

func (m *SubscriberService) Insert(s *newsletter.Subscriber) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *SubscriberService) FindByEmail(email string) ([]newsletter.Subscriber, error) {
	args := m.Called(email)
	subscribers, _ := args.Get(0).([]newsletter.Subscriber)
	return subscribers, args.Error(1)
}

func (m *SubscriberService) FindByStatus(status string) ([]newsletter.Subscriber, error) {
	args := m.Called(status)
	subscribers, _ := args.Get(0).([]newsletter.Subscriber)
	return subscribers, args.Error(1)
}

func (m *SubscriberService) Unsubscribe(email string, at time.Time) error {
	args := m.Called(email, at)
	return args.Error(0)
}
