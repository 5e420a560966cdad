package wizard

import (
	"strconv"
	"strings"
	"time"

	"github.com/quantonganh/newsletter"
)

// NewSubscriberID returns the identifier sent with a subscription.
func NewSubscriberID(now time.Time) string {
	return "SUB_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// BuildSubscribeRequest renders d as the body posted to the store. The
// distribution is only sent in per topic mode.
func BuildSubscribeRequest(d Draft, subscriberID string, now time.Time) *newsletter.SubscribeRequest {
	tags := append([]string{}, d.Tags...)

	var distribution map[string]int
	if d.ArticleMode == newsletter.ModePerTopic {
		distribution = make(map[string]int, len(d.TopicDistribution))
		for k, v := range d.TopicDistribution {
			distribution[k] = v
		}
	}

	return &newsletter.SubscribeRequest{
		Action:            newsletter.ActionSubscribe,
		SubscriberID:      subscriberID,
		FirstName:         strings.TrimSpace(d.FirstName),
		LastName:          strings.TrimSpace(d.LastName),
		Email:             strings.TrimSpace(d.Email),
		Tags:              tags,
		ArticleMode:       d.ArticleMode,
		TotalCount:        d.TotalCount(),
		TopicDistribution: distribution,
		Status:            newsletter.StatusActive,
		SubscribedAt:      newsletter.FormatTimestamp(now),
	}
}
