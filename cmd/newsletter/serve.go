package main

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reference subscriber store and the digest scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := newLogger(c.config, os.Stdout)
			if err != nil {
				return err
			}
			defer closeLog()

			if err := sentry.Init(sentry.ClientOptions{
				Dsn: c.config.Sentry.DSN,
			}); err != nil {
				return errors.Wrap(err, "sentry.Init")
			}
			defer sentry.Flush(2 * time.Second)

			a, err := newApp(c.config, logger)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if err := a.Run(ctx); err != nil {
				_ = a.Close()
				return err
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				<-ctx.Done()
				return a.Close()
			})
			if a.queue != nil {
				closed := a.queue.NotifyClose()
				g.Go(func() error {
					select {
					case <-ctx.Done():
						return nil
					case amqpErr, ok := <-closed:
						if !ok || amqpErr == nil {
							return nil
						}
						return errors.Wrap(amqpErr, "rabbitmq connection closed")
					}
				})
			}

			return g.Wait()
		},
	}
}
