package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/digest"
)

const envPrefix = "NEWSLETTER"

var defaults = map[string]interface{}{
	"store.url":               "",
	"store.timeout":           time.Duration(0),
	"breaker.enabled":         false,
	"breaker.failures":        5,
	"breaker.timeout":         30 * time.Second,
	"db.type":                 "bolt",
	"db.path":                 "newsletter.db",
	"http.addr":               ":8080",
	"http.domain":             "",
	"smtp.host":               "",
	"smtp.port":               587,
	"smtp.username":           "",
	"smtp.password":           "",
	"newsletter.from":         "",
	"newsletter.product.name": "Newsletter",
	"newsletter.hmac.secret":  "",
	"digest.cron":             digest.DefaultSpec,
	"digest.topic":            digest.DefaultTopic,
	"sentry.dsn":              "",
	"amqp.url":                "",
	"log.level":               "info",
	"log.file":                "",
}

// loadConfig reads .env, then the config file, then NEWSLETTER_* variables.
// A missing config file is not an error.
func loadConfig(path string) (*newsletter.Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("store.url", "NEWSLETTER_SCRIPT_URL"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	config := new(newsletter.Config)
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return config, nil
}

// newLogger writes to log.file when set, else to fallback.
func newLogger(config *newsletter.Config, fallback io.Writer) (zerolog.Logger, func() error, error) {
	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		return zerolog.Nop(), nil, errors.Wrapf(err, "invalid log level %q", config.Log.Level)
	}

	w, closeFn := fallback, func() error { return nil }
	if config.Log.File != "" {
		f, err := os.OpenFile(config.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrap(err, "failed to open log file")
		}
		w, closeFn = f, f.Close
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closeFn, nil
}
