package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/domain/types"
	"github.com/secmon-lab/aligner/pkg/usecase"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdAlign() *cli.Command {
	var svc services
	var (
		group      string
		channel    string
		remove     bool
		dryRun     bool
		maxChanges int
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "group",
			Aliases:     []string{"g"},
			Usage:       "Google group email address",
			Required:    true,
			Destination: &group,
		},
		&cli.StringFlag{
			Name:        "channel",
			Usage:       "Slack channel ID (e.g. C12345678)",
			Required:    true,
			Destination: &channel,
		},
		&cli.BoolFlag{
			Name:        "remove",
			Usage:       "Remove channel members who are not in the group",
			Destination: &remove,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Report changes without applying them",
			Destination: &dryRun,
			Sources:     cli.EnvVars("ALIGNER_DRY_RUN", "DRY_RUN"),
		},
		&cli.IntFlag{
			Name:        "max-changes",
			Usage:       "Abort when more changes than this are needed",
			Value:       model.DefaultMaxChangesPerRun,
			Destination: &maxChanges,
		},
	}
	flags = append(flags, svc.Flags()...)

	return &cli.Command{
		Name:  "align",
		Usage: "Align one Slack channel with one Google group",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			settings := model.DefaultSettings()
			settings.DryRun = dryRun
			settings.MaxChangesPerRun = maxChanges

			cfg := model.SyncConfig{
				Settings: settings,
				Mappings: []model.Mapping{
					{
						Name:         group,
						GoogleGroup:  group,
						SlackChannel: channel,
						Enabled:      true,
						AddOnly:      !remove,
					},
				},
			}
			if err := cfg.Validate(); err != nil {
				return goerr.Wrap(err, "invalid arguments")
			}

			uc, closer, err := svc.Configure(ctx, settings, usecase.WithConsole(os.Stdout))
			if err != nil {
				return err
			}
			defer closer()

			logging.From(ctx).Info("Aligning channel", "group", group, "channel", channel, "remove", remove, "dry_run", dryRun)

			run, err := uc.Sync.Run(ctx, cfg)
			if err != nil {
				return err
			}

			if stats := run.Stats[0]; stats.Status == types.SyncStatusFailed {
				return goerr.Wrap(usecase.ErrMappingFailed, "alignment failed",
					goerr.V("group", group),
					goerr.V("channel", channel),
					goerr.V("errors", stats.Errors),
				)
			}
			return nil
		},
	}
}
