package newsletter

import "time"

// SubscriberService is the interface that wraps methods related to the subscriber store
type SubscriberService interface {
	Insert(s *Subscriber) error
	FindByEmail(email string) ([]Subscriber, error)
	FindByStatus(status string) ([]Subscriber, error)
	Unsubscribe(email string, at time.Time) error
}

// Subscriber is one row of the subscriber sheet.
type Subscriber struct {
	ID                string `storm:"id"`
	FirstName         string
	LastName          string
	Email             string `storm:"index"`
	CountryCode       string
	Mobile            string
	Tags              []string
	ArticleMode       ArticleMode
	TotalCount        int
	TopicDistribution map[string]int
	Status            string `storm:"index"`
	SubscribedAt      time.Time
	UnsubscribedAt    *time.Time
}

// Subscriber status
const (
	StatusActive       = "active"
	StatusUnsubscribed = "unsubscribed"
)

// ArticleMode selects how the digest article count is expressed.
type ArticleMode string

const (
	ModeSimple   ArticleMode = "simple"
	ModePerTopic ArticleMode = "perTopic"
)

// Valid reports whether m is a known mode.
func (m ArticleMode) Valid() bool {
	return m == ModeSimple || m == ModePerTopic
}

// NewSubscriber converts a subscribe request into a stored row.
func NewSubscriber(req *SubscribeRequest) (*Subscriber, error) {
	subscribedAt, err := ParseTimestamp(req.SubscribedAt)
	if err != nil {
		return nil, Errorf(ErrInvalid, "Invalid subscribedAt: %q", req.SubscribedAt)
	}

	s := &Subscriber{
		ID:                req.SubscriberID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Tags:              req.Tags,
		ArticleMode:       req.ArticleMode,
		TotalCount:        req.TotalCount,
		TopicDistribution: req.TopicDistribution,
		Status:            StatusActive,
		SubscribedAt:      subscribedAt,
	}
	if req.CountryCode != nil {
		s.CountryCode = *req.CountryCode
	}
	if req.Mobile != nil {
		s.Mobile = *req.Mobile
	}

	return s, nil
}
