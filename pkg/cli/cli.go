package cli

import (
	"context"
	"time"

	"github.com/secmon-lab/aligner/pkg/cli/config"
	"github.com/secmon-lab/aligner/pkg/utils/errutil"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closer func()

	var flags []cli.Flag
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "aligner",
		Usage:   "Align Slack channel membership with Google Workspace groups",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			if err := sentryCfg.Configure(version); err != nil {
				return ctx, err
			}

			logging.Default().Debug("Starting aligner", "logger", loggerCfg, "sentry", sentryCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			errutil.Flush(2 * time.Second)
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdAlign(),
			cmdSync(),
			cmdWatch(),
			cmdValidate(),
			cmdHistory(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
