package config

import (
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type Sentry struct {
	dsn string
	env string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Category:    "Sentry",
			Destination: &x.dsn,
			Sources:     cli.EnvVars("ALIGNER_SENTRY_DSN", "SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Category:    "Sentry",
			Destination: &x.env,
			Sources:     cli.EnvVars("ALIGNER_SENTRY_ENV", "SENTRY_ENVIRONMENT"),
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.dsn != ""),
		slog.String("env", x.env),
	)
}

// Configure initializes the Sentry client. Without a DSN errors are only logged.
func (x *Sentry) Configure(release string) error {
	if x.dsn == "" {
		return nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.env,
		Release:     release,
	}); err != nil {
		return goerr.Wrap(err, "failed to initialize Sentry")
	}
	return nil
}
