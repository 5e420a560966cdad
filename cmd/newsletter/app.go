package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/bolt"
	"github.com/quantonganh/newsletter/digest"
	"github.com/quantonganh/newsletter/gmail"
	"github.com/quantonganh/newsletter/http"
	"github.com/quantonganh/newsletter/rabbitmq"
	"github.com/quantonganh/newsletter/sqlite"
)

type app struct {
	config *newsletter.Config
	logger zerolog.Logger

	db             newsletter.Database
	newSubscribers func() newsletter.SubscriberService

	queue      *rabbitmq.QueueService
	scheduler  *digest.Scheduler
	httpServer *http.Server
}

func newApp(config *newsletter.Config, logger zerolog.Logger) (*app, error) {
	a := &app{
		config:     config,
		logger:     logger,
		httpServer: http.NewServer(logger),
	}

	switch config.DB.Type {
	case "", "bolt":
		db := bolt.NewDB(config.DB.Path)
		a.db = db
		a.newSubscribers = func() newsletter.SubscriberService { return bolt.NewSubscriberService(db) }
	case "sqlite":
		db := sqlite.NewDB(config.DB.Path, logger.With().Str("component", "sqlite").Logger())
		a.db = db
		a.newSubscribers = func() newsletter.SubscriberService { return sqlite.NewSubscriberService(db) }
	default:
		return nil, errors.Errorf("unknown db.type %q", config.DB.Type)
	}

	return a, nil
}

func (a *app) Run(ctx context.Context) error {
	if err := a.db.Open(); err != nil {
		return err
	}
	subscribers := a.newSubscribers()

	var queue newsletter.QueueService
	if a.config.AMQP.URL != "" {
		q, err := rabbitmq.NewQueueService(a.config.AMQP.URL)
		if err != nil {
			return err
		}
		a.queue, queue = q, q
	}

	planner := digest.NewPlanner(subscribers, queue, a.logger.With().Str("component", "digest").Logger())
	planner.Topic = a.config.Digest.Topic

	scheduler, err := digest.NewScheduler(planner, a.config.Digest.Cron)
	if err != nil {
		return err
	}
	a.scheduler = scheduler
	a.scheduler.Start()
	a.logger.Info().Time("next", a.scheduler.Next()).Msg("digest scheduled")

	a.httpServer.Addr = a.config.HTTP.Addr
	a.httpServer.Domain = a.config.HTTP.Domain
	a.httpServer.HMACSecret = a.config.Newsletter.HMAC.Secret
	a.httpServer.SubscriberService = subscribers
	a.httpServer.Planner = planner

	if err := a.httpServer.Listen(); err != nil {
		return err
	}
	if a.config.SMTP.Host != "" {
		a.httpServer.MailerService = gmail.NewMailerService(a.config, a.httpServer.URL())
	}
	a.httpServer.Serve()

	a.logger.Info().Str("url", a.httpServer.URL()).Msg("serving subscriber store")
	return nil
}

func (a *app) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Close(); err != nil {
			return err
		}
	}

	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			return err
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return err
		}
	}

	return nil
}
