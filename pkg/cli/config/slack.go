package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/service/secret"
	"github.com/secmon-lab/aligner/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken       string
	botTokenSecret string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (users:read, users:read.email, channels:manage, groups:write, chat:write)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("ALIGNER_SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-bot-token-secret",
			Usage:       "Secret Manager version holding the bot token (projects/*/secrets/*/versions/*)",
			Category:    "Slack",
			Destination: &x.botTokenSecret,
			Sources:     cli.EnvVars("ALIGNER_SLACK_BOT_TOKEN_SECRET"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("bot-token-secret", x.botTokenSecret),
	)
}

func (x *Slack) Validate() error {
	if x.botToken == "" && x.botTokenSecret == "" {
		return goerr.Wrap(ErrMissingCredentials, "set --slack-bot-token or --slack-bot-token-secret")
	}
	if x.botToken == "" {
		if err := secret.ValidateName(x.botTokenSecret); err != nil {
			return goerr.Wrap(err, "invalid --slack-bot-token-secret")
		}
	}
	return nil
}

// UsesSecret reports whether the token must be read from Secret Manager
func (x *Slack) UsesSecret() bool {
	return x.botToken == "" && x.botTokenSecret != ""
}

// Configure creates the Channel Store with pacing and chunking from settings
func (x *Slack) Configure(ctx context.Context, secrets secret.Service, settings model.Settings) (slack.Service, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	token := x.botToken
	if x.UsesSecret() {
		if secrets == nil {
			return nil, goerr.New("secret service is required to read the bot token")
		}
		data, err := secrets.Access(ctx, x.botTokenSecret)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read bot token from Secret Manager")
		}
		token = trimSecret(data)
	}

	svc, err := slack.New(token,
		slack.WithInviteChunkSize(settings.InviteChunkSize),
		slack.WithInviteInterval(settings.InviteInterval),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack client")
	}
	return svc, nil
}
