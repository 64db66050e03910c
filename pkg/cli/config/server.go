package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Server holds the optional HTTP endpoint of watch mode
type Server struct {
	addr          string
	signingSecret string
}

func (x *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address for health, run history and the slash command (disabled when empty)",
			Category:    "Server",
			Destination: &x.addr,
			Sources:     cli.EnvVars("ALIGNER_ADDR"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret; enables the slash command endpoint that triggers a sync run",
			Category:    "Server",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("ALIGNER_SLACK_SIGNING_SECRET", "SLACK_SIGNING_SECRET"),
		},
	}
}

func (x Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", x.addr),
		slog.Bool("slash_command", x.signingSecret != ""),
	)
}

func (x *Server) Addr() string {
	return x.addr
}

// IsEnabled reports whether watch mode should serve HTTP
func (x *Server) IsEnabled() bool {
	return x.addr != ""
}

// IsSlashCommandEnabled reports whether a signing secret is configured
func (x *Server) IsSlashCommandEnabled() bool {
	return x.signingSecret != ""
}

func (x *Server) SigningSecret() string {
	return x.signingSecret
}
