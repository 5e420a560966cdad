package newsletter

import (
	"context"
	"time"
)

// Actions understood by the remote subscriber store.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Response statuses returned by the remote subscriber store.
const (
	ResponseSuccess  = "success"
	ResponseNotFound = "not_found"
	ResponseError    = "error"
)

// TimestampLayout matches JavaScript's Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Store is the remote subscriber store as seen by the clients. A returned
// error means no response was received.
type Store interface {
	Subscribe(ctx context.Context, req *SubscribeRequest) (*Response, error)
	Unsubscribe(ctx context.Context, req *UnsubscribeRequest) (*Response, error)
}

// SubscribeRequest is the body posted for action "subscribe".
type SubscribeRequest struct {
	Action            string         `json:"action"`
	SubscriberID      string         `json:"subscriberId"`
	FirstName         string         `json:"firstName"`
	LastName          string         `json:"lastName"`
	Email             string         `json:"email"`
	CountryCode       *string        `json:"countryCode"`
	Mobile            *string        `json:"mobile"`
	Tags              []string       `json:"tags"`
	ArticleMode       ArticleMode    `json:"articleMode"`
	TotalCount        int            `json:"totalCount"`
	TopicDistribution map[string]int `json:"topicDistribution"`
	Status            string         `json:"status"`
	SubscribedAt      string         `json:"subscribedAt"`
	UnsubscribedAt    *string        `json:"unsubscribedAt"`
}

// UnsubscribeRequest is the body posted for action "unsubscribe".
type UnsubscribeRequest struct {
	Action         string `json:"action"`
	Email          string `json:"email"`
	UnsubscribedAt string `json:"unsubscribedAt"`
}

// NewUnsubscribeRequest returns a request stamped with the given time.
func NewUnsubscribeRequest(email string, at time.Time) *UnsubscribeRequest {
	return &UnsubscribeRequest{
		Action:         ActionUnsubscribe,
		Email:          email,
		UnsubscribedAt: FormatTimestamp(at),
	}
}

// Response is the body returned for both actions. A malformed body decodes
// to the zero Response.
type Response struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout as well as any RFC 3339 time.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
