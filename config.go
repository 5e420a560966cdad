package newsletter

import "time"

// Config represents the main config
type Config struct {
	Store struct {
		URL     string
		Timeout time.Duration
	}

	Breaker struct {
		Enabled  bool
		Failures uint32
		Timeout  time.Duration
	}

	DB struct {
		Type string // "bolt", "sqlite"
		Path string
	}

	HTTP struct {
		Addr   string
		Domain string
	}

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
	}

	Newsletter struct {
		From    string
		Product struct {
			Name string
		}
		HMAC struct {
			Secret string
		}
	}

	Digest struct {
		Cron  string
		Topic string
	}

	Sentry struct {
		DSN string
	}

	AMQP struct {
		URL string
	}

	Log struct {
		Level string
		File  string
	}
}
