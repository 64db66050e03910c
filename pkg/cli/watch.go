package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/cli/config"
	httpctrl "github.com/secmon-lab/aligner/pkg/controller/http"
	"github.com/secmon-lab/aligner/pkg/service/worker"
	"github.com/secmon-lab/aligner/pkg/usecase"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdWatch() *cli.Command {
	var syncFile config.SyncFile
	var svc services
	var serverCfg config.Server
	var schedule string
	var interval time.Duration

	var flags []cli.Flag
	flags = append(flags, syncFile.Flags()...)
	flags = append(flags, svc.Flags()...)
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "schedule",
			Usage:       "Cron expression of sync runs (e.g. \"0 * * * *\", \"@hourly\"); overrides --interval",
			Category:    "Watch",
			Destination: &schedule,
			Sources:     cli.EnvVars("ALIGNER_SCHEDULE"),
		},
		&cli.DurationFlag{
			Name:        "interval",
			Usage:       "Interval between sync runs",
			Category:    "Watch",
			Value:       time.Hour,
			Destination: &interval,
			Sources:     cli.EnvVars("ALIGNER_INTERVAL"),
		},
	)

	return &cli.Command{
		Name:  "watch",
		Usage: "Run the sync job periodically until interrupted",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			cfg, err := syncFile.Load()
			if err != nil {
				return err
			}

			sched, err := worker.ParseSchedule(schedule, interval)
			if err != nil {
				return err
			}

			uc, closer, err := svc.Configure(ctx, cfg.Settings)
			if err != nil {
				return err
			}
			defer closer()

			w, err := worker.NewSyncWorker(uc.Sync, syncFile.Load, sched)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			if err := w.Start(ctx); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			logger.Info("Watching", "config", syncFile, "schedule", schedule, "interval", interval, "server", serverCfg)

			var server *http.Server
			errCh := make(chan error, 1)
			if serverCfg.IsEnabled() {
				server, err = newWatchServer(&serverCfg, uc.Sync, w)
				if err != nil {
					cancel()
					w.Stop()
					return err
				}

				go func() {
					logger.Info("Starting HTTP server", "addr", server.Addr)
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- goerr.Wrap(err, "failed to start server", goerr.V("addr", server.Addr))
					}
				}()
			}

			var runErr error
			select {
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)
			case <-w.Done():
				logger.Info("Sync worker exited")
			case runErr = <-errCh:
			}

			if server != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown HTTP server gracefully", "error", err)
				}
			}

			// Cancelling stops a run in progress at its next network call
			cancel()
			w.Stop()
			return runErr
		},
	}
}

func newWatchServer(cfg *config.Server, syncUC *usecase.SyncUseCase, w *worker.SyncWorker) (*http.Server, error) {
	var opts []httpctrl.Options
	if syncUC.HasHistory() {
		opts = append(opts, httpctrl.WithHistory(syncUC))
	}
	if cfg.IsSlashCommandEnabled() {
		opts = append(opts, httpctrl.WithSlackCommand(w, cfg.SigningSecret()))
	}

	handler, err := httpctrl.New(opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create http server")
	}

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}, nil
}
