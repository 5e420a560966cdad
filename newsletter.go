package newsletter

// MailerService is the interface that wraps methods related to SMTP
type MailerService interface {
	SendWelcomeEmail(s *Subscriber) error
	SendGoodbyeEmail(to string) error
}
