package digest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"

	"github.com/quantonganh/newsletter"
)

const (
	// DefaultSpec fires at 03:30 UTC every day.
	DefaultSpec = "30 3 * * *"
	// DefaultTopic is the queue the plans are published on.
	DefaultTopic = "digest.plans"
)

// Planner builds a plan for every active subscriber and publishes it.
type Planner struct {
	SubscriberService newsletter.SubscriberService
	QueueService      newsletter.QueueService
	Topic             string
	Now               func() time.Time
	Logger            zerolog.Logger
}

// NewPlanner returns a planner publishing on DefaultTopic.
func NewPlanner(subscriberService newsletter.SubscriberService, queueService newsletter.QueueService, logger zerolog.Logger) *Planner {
	return &Planner{
		SubscriberService: subscriberService,
		QueueService:      queueService,
		Topic:             DefaultTopic,
		Now:               time.Now,
		Logger:            logger,
	}
}

// Run plans one digest and returns the number of plans built. Without a
// queue the plans are only logged.
func (p *Planner) Run(ctx context.Context) (int, error) {
	subscribers, err := p.SubscriberService.FindByStatus(newsletter.StatusActive)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load active subscribers")
	}

	runID := uuid.NewV4().String()
	now := p.Now().UTC()
	logger := p.Logger.With().Str("run_id", runID).Logger()

	for i := range subscribers {
		plan := NewPlan(runID, now, &subscribers[i])
		if p.QueueService == nil {
			logger.Info().Str("subscriber_id", plan.SubscriberID).Int("total", plan.Total).Msg("planned digest")
			continue
		}

		body, err := json.Marshal(plan)
		if err != nil {
			return i, errors.Wrap(err, "json.Marshal")
		}
		if err := p.QueueService.Publish(ctx, p.Topic, body); err != nil {
			return i, errors.Wrapf(err, "failed to publish plan of %s", plan.SubscriberID)
		}
	}

	logger.Info().Int("plans", len(subscribers)).Msg("digest run finished")
	return len(subscribers), nil
}

// Scheduler runs a Planner on a cron schedule in UTC.
type Scheduler struct {
	cron    *cron.Cron
	planner *Planner
}

// NewScheduler registers planner under spec. An empty spec means DefaultSpec.
func NewScheduler(planner *Planner, spec string) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}

	c := cron.New(cron.WithLocation(time.UTC))
	s := &Scheduler{cron: c, planner: planner}
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, errors.Wrapf(err, "invalid cron spec %q", spec)
	}
	return s, nil
}

func (s *Scheduler) run() {
	if _, err := s.planner.Run(context.Background()); err != nil {
		s.planner.Logger.Error().Err(err).Msg("digest run failed")
	}
}

// Next returns the next activation time.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
