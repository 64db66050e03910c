package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/cli/config"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var syncFile config.SyncFile

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the config document without contacting any API",
		Flags:   syncFile.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			cfg, err := syncFile.Load()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed",
				"path", syncFile.Path(),
				"mapping_count", len(cfg.Mappings),
				"enabled_count", len(cfg.EnabledMappings()),
				"dry_run", cfg.Settings.DryRun,
				"max_changes_per_run", cfg.Settings.MaxChangesPerRun,
			)
			for _, m := range cfg.Mappings {
				logger.Info("Mapping validated",
					"name", m.Name,
					"group", m.GoogleGroup,
					"channel", m.SlackChannel,
					"enabled", m.Enabled,
					"add_only", m.AddOnly,
					"protected_count", len(m.ProtectedSlackUsers),
				)
			}

			return nil
		},
	}
}
