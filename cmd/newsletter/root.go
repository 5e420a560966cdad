package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/http"
	"github.com/quantonganh/newsletter/tui"
	"github.com/quantonganh/newsletter/unsubscribe"
	"github.com/quantonganh/newsletter/wizard"
)

var errNoStoreURL = errors.New("store.url is not set (NEWSLETTER_SCRIPT_URL)")

type cli struct {
	configPath string
	config     *newsletter.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "newsletter",
		Short:         "Subscribe to the newsletter from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			c.config, err = loadConfig(c.configPath)
			return err
		},
		RunE: c.runForm,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")

	root.AddCommand(
		c.formCmd(),
		c.unsubscribeCmd(),
		c.serveCmd(),
		c.digestCmd(),
	)
	return root
}

func (c *cli) formCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Open the subscription form",
		Args:  cobra.NoArgs,
		RunE:  c.runForm,
	}
}

func (c *cli) runForm(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger(c.config, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := c.newStore(logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	w := wizard.New(store, wizard.WithLogger(logger.With().Str("component", "wizard").Logger()))
	f := unsubscribe.NewFlow(store, logger.With().Str("component", "unsubscribe").Logger())
	return tui.Run(ctx, w, f)
}

func (c *cli) unsubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <email>",
		Short: "Unsubscribe an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := newLogger(c.config, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()

			store, err := c.newStore(logger)
			if err != nil {
				return err
			}

			f := unsubscribe.NewFlow(store, logger.With().Str("component", "unsubscribe").Logger())
			result, err := f.Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Text())
			if result.Outcome() == unsubscribe.OutcomeFailed {
				return errors.New("unsubscribe failed")
			}
			return nil
		},
	}
}

func (c *cli) newStore(logger zerolog.Logger) (newsletter.Store, error) {
	if c.config.Store.URL == "" {
		return nil, errNoStoreURL
	}

	opts := []http.ClientOption{
		http.WithTimeout(c.config.Store.Timeout),
		http.WithClientLogger(logger.With().Str("component", "client").Logger()),
	}
	if c.config.Breaker.Enabled {
		opts = append(opts, http.WithBreaker(c.config.Breaker.Failures, c.config.Breaker.Timeout))
	}
	return http.NewClient(c.config.Store.URL, opts...), nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
