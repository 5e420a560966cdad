// Package gmail sends the welcome and goodbye emails over SMTP.
package gmail

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/matcornic/hermes/v2"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/digest"
	"github.com/quantonganh/newsletter/pkg/hash"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type mailerService struct {
	ServerURL string
	*newsletter.Config
	sender sender
}

// NewMailerService returns new mailer service
func NewMailerService(config *newsletter.Config, serverURL string) newsletter.MailerService {
	return &mailerService{
		Config:    config,
		ServerURL: serverURL,
		sender:    gomail.NewDialer(config.SMTP.Host, config.SMTP.Port, config.SMTP.Username, config.SMTP.Password),
	}
}

func (ms *mailerService) hermes() *hermes.Hermes {
	return &hermes.Hermes{
		Product: hermes.Product{
			Name: ms.Config.Newsletter.Product.Name,
			Link: ms.ServerURL,
		},
	}
}

// SendWelcomeEmail sends the topics of a new subscription with a one click unsubscribe link
func (ms *mailerService) SendWelcomeEmail(s *newsletter.Subscriber) error {
	body, err := ms.welcomeBody(s)
	if err != nil {
		return err
	}

	return ms.sendEmail(s.Email, fmt.Sprintf("Welcome to %s", ms.Config.Newsletter.Product.Name), body)
}

func (ms *mailerService) welcomeBody(s *newsletter.Subscriber) (string, error) {
	link, err := ms.unsubscribeURL(s.Email)
	if err != nil {
		return "", err
	}

	var rows [][]hermes.Entry
	for _, q := range digest.Quotas(s) {
		rows = append(rows, []hermes.Entry{
			{Key: "Topic", Value: q.Tag},
			{Key: "Articles", Value: strconv.Itoa(q.Count)},
		})
	}

	email := hermes.Email{
		Body: hermes.Body{
			Name: s.FirstName,
			Intros: []string{
				fmt.Sprintf("Welcome to %s", ms.Config.Newsletter.Product.Name),
				fmt.Sprintf("Your first digest arrives at 3:30 AM UTC with %d articles.", s.TotalCount),
			},
			Table: hermes.Table{
				Data: rows,
			},
			Actions: []hermes.Action{
				{
					Instructions: "Changed your mind?",
					Button: hermes.Button{
						Color: "#DC4D2F",
						Text:  "Unsubscribe",
						Link:  link,
					},
				},
			},
		},
	}

	emailBody, err := ms.hermes().GenerateHTML(email)
	if err != nil {
		return "", errors.Errorf("failed to generate HTML email: %v", err)
	}
	return emailBody, nil
}

// SendGoodbyeEmail confirms an unsubscription
func (ms *mailerService) SendGoodbyeEmail(to string) error {
	email := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				fmt.Sprintf("You have been unsubscribed from %s.", ms.Config.Newsletter.Product.Name),
			},
			Outros: []string{
				"Sorry to see you go.",
			},
		},
	}

	emailBody, err := ms.hermes().GenerateHTML(email)
	if err != nil {
		return errors.Errorf("failed to generate HTML email: %v", err)
	}

	return ms.sendEmail(to, "You have been unsubscribed", emailBody)
}

func (ms *mailerService) unsubscribeURL(email string) (string, error) {
	sig, err := hash.ComputeHmac256(email, ms.Config.Newsletter.HMAC.Secret)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("email", email)
	q.Set("hash", sig)
	return fmt.Sprintf("%s/unsubscribe?%s", ms.ServerURL, q.Encode()), nil
}

func (ms *mailerService) sendEmail(to string, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", ms.Config.Newsletter.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	if err := ms.sender.DialAndSend(m); err != nil {
		return errors.Errorf("failed to send mail to %s: %v", to, err)
	}

	return nil
}
