// Package digest plans the daily digest of every active subscriber.
package digest

import (
	"time"

	"github.com/quantonganh/newsletter"
)

// Quota is the number of articles of one topic in a digest.
type Quota struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Plan is what one subscriber receives in one digest run.
type Plan struct {
	RunID        string    `json:"runId"`
	GeneratedAt  time.Time `json:"generatedAt"`
	SubscriberID string    `json:"subscriberId"`
	Email        string    `json:"email"`
	Total        int       `json:"total"`
	Quotas       []Quota   `json:"quotas"`
}

// Quotas splits the subscriber's article count across its tags, in tag
// order. Simple mode spreads TotalCount evenly and hands the remainder to the
// first tags; per topic mode uses the distribution as is.
func Quotas(s *newsletter.Subscriber) []Quota {
	quotas := make([]Quota, 0, len(s.Tags))
	if len(s.Tags) == 0 {
		return quotas
	}

	if s.ArticleMode == newsletter.ModePerTopic {
		for _, tag := range s.Tags {
			quotas = append(quotas, Quota{Tag: tag, Count: s.TopicDistribution[tag]})
		}
		return quotas
	}

	each, rest := s.TotalCount/len(s.Tags), s.TotalCount%len(s.Tags)
	for i, tag := range s.Tags {
		n := each
		if i < rest {
			n++
		}
		quotas = append(quotas, Quota{Tag: tag, Count: n})
	}
	return quotas
}

// NewPlan returns the plan of s for the given run.
func NewPlan(runID string, at time.Time, s *newsletter.Subscriber) Plan {
	quotas := Quotas(s)
	total := 0
	for _, q := range quotas {
		total += q.Count
	}

	return Plan{
		RunID:        runID,
		GeneratedAt:  at,
		SubscriberID: s.ID,
		Email:        s.Email,
		Total:        total,
		Quotas:       quotas,
	}
}
