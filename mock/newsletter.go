package mock

import (
	"github.com/stretchr/testify/mock"

	"github.com/quantonganh/newsletter"
)

// MailerService is a testify mock of newsletter.MailerService.
type MailerService struct {
	mock.Mock
}

func (m *MailerService) SendWelcomeEmail(s *newsletter.Subscriber) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MailerService) SendGoodbyeEmail(to string) error {
	args := m.Called(to)
	return args.Error(0)
}
