package digest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantonganh/newsletter"
	newslettermock "github.com/quantonganh/newsletter/mock"
)

func TestQuotas(t *testing.T) {
	tests := []struct {
		name string
		s    newsletter.Subscriber
		want []Quota
	}{
		{
			name: "simple even",
			s:    newsletter.Subscriber{Tags: []string{"AI", "React"}, ArticleMode: newsletter.ModeSimple, TotalCount: 10},
			want: []Quota{{"AI", 5}, {"React", 5}},
		},
		{
			name: "simple remainder goes to first tags",
			s:    newsletter.Subscriber{Tags: []string{"AI", "React", "DevOps"}, ArticleMode: newsletter.ModeSimple, TotalCount: 10},
			want: []Quota{{"AI", 4}, {"React", 3}, {"DevOps", 3}},
		},
		{
			name: "per topic",
			s: newsletter.Subscriber{
				Tags:              []string{"AI", "React", "DevOps"},
				ArticleMode:       newsletter.ModePerTopic,
				TotalCount:        5,
				TopicDistribution: map[string]int{"AI": 3, "React": 2},
			},
			want: []Quota{{"AI", 3}, {"React", 2}, {"DevOps", 0}},
		},
		{
			name: "no tags",
			s:    newsletter.Subscriber{ArticleMode: newsletter.ModeSimple, TotalCount: 10},
			want: []Quota{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Quotas(&tt.s)); diff != "" {
				t.Errorf("Quotas() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlannerRun(t *testing.T) {
	now := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	subscribers := []newsletter.Subscriber{
		{ID: "SUB_1", Email: "ana@example.com", Tags: []string{"AI"}, ArticleMode: newsletter.ModeSimple, TotalCount: 15},
		{ID: "SUB_2", Email: "bob@example.com", Tags: []string{"AI", "Go"}, ArticleMode: newsletter.ModePerTopic, TotalCount: 5,
			TopicDistribution: map[string]int{"AI": 4, "Go": 1}},
	}

	subscriberService := new(newslettermock.SubscriberService)
	subscriberService.On("FindByStatus", newsletter.StatusActive).Return(subscribers, nil)

	var published []Plan
	queueService := new(newslettermock.QueueService)
	queueService.On("Publish", mock.Anything, DefaultTopic, mock.Anything).
		Run(func(args mock.Arguments) {
			var p Plan
			require.NoError(t, json.Unmarshal(args.Get(2).([]byte), &p))
			published = append(published, p)
		}).
		Return(nil)

	p := NewPlanner(subscriberService, queueService, zerolog.Nop())
	p.Now = func() time.Time { return now }

	n, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, published, 2)
	assert.Equal(t, published[0].RunID, published[1].RunID)
	assert.NotEmpty(t, published[0].RunID)
	assert.Equal(t, 15, published[0].Total)
	assert.Equal(t, 5, published[1].Total)
	assert.True(t, now.Equal(published[1].GeneratedAt))
}

func TestPlannerRunPublishError(t *testing.T) {
	subscriberService := new(newslettermock.SubscriberService)
	subscriberService.On("FindByStatus", newsletter.StatusActive).
		Return([]newsletter.Subscriber{{ID: "SUB_1", Tags: []string{"AI"}, TotalCount: 5}}, nil)

	queueService := new(newslettermock.QueueService)
	queueService.On("Publish", mock.Anything, DefaultTopic, mock.Anything).Return(errors.New("channel closed"))

	n, err := NewPlanner(subscriberService, queueService, zerolog.Nop()).Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestPlannerRunWithoutQueue(t *testing.T) {
	subscriberService := new(newslettermock.SubscriberService)
	subscriberService.On("FindByStatus", newsletter.StatusActive).
		Return([]newsletter.Subscriber{{ID: "SUB_1", Tags: []string{"AI"}, TotalCount: 5}}, nil)

	n, err := NewPlanner(subscriberService, nil, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScheduler(t *testing.T) {
	_, err := NewScheduler(&Planner{}, "not a spec")
	assert.Error(t, err)

	s, err := NewScheduler(&Planner{}, "")
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	next := s.Next().UTC()
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 30, next.Minute())
}
