package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/quantonganh/newsletter/rabbitmq"
)

func (c *cli) digestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Inspect digest plans",
	}
	cmd.AddCommand(c.digestTailCmd())
	return cmd
}

func (c *cli) digestTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Print digest plans as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.config.AMQP.URL == "" {
				return errors.New("amqp.url is not set")
			}

			logger, closeLog, err := newLogger(c.config, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()

			qs, err := rabbitmq.NewQueueService(c.config.AMQP.URL)
			if err != nil {
				return err
			}
			defer qs.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			plans, err := qs.Consume(ctx, c.config.Digest.Topic)
			if err != nil {
				return err
			}
			logger.Info().Str("topic", c.config.Digest.Topic).Msg("waiting for digest plans")

			out := cmd.OutOrStdout()
			for body := range plans {
				if _, err := out.Write(append(body, '\n')); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
