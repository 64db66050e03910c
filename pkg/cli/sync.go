package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/cli/config"
	"github.com/secmon-lab/aligner/pkg/usecase"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var syncFile config.SyncFile
	var svc services
	var strict bool
	var summary bool

	var flags []cli.Flag
	flags = append(flags, syncFile.Flags()...)
	flags = append(flags, svc.Flags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:        "strict",
			Usage:       "Exit with an error when any mapping is aborted or failed",
			Destination: &strict,
			Sources:     cli.EnvVars("ALIGNER_STRICT"),
		},
		&cli.BoolFlag{
			Name:        "summary",
			Usage:       "Print a summary of the run to stdout",
			Value:       true,
			Destination: &summary,
		},
	)

	return &cli.Command{
		Name:  "sync",
		Usage: "Run every enabled mapping of the config document once",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := syncFile.Load()
			if err != nil {
				return err
			}

			var opts []usecase.Option
			if summary {
				opts = append(opts, usecase.WithConsole(os.Stdout))
			}

			uc, closer, err := svc.Configure(ctx, cfg.Settings, opts...)
			if err != nil {
				return err
			}
			defer closer()

			logging.From(ctx).Info("Configured sync", "config", syncFile, "services", svc)

			run, err := uc.Sync.Run(ctx, *cfg)
			if err != nil {
				return err
			}

			if strict && run.HasFailure() {
				return goerr.Wrap(usecase.ErrRunHasFailures, "sync finished with failures", goerr.V("run_id", run.ID))
			}
			return nil
		},
	}
}
