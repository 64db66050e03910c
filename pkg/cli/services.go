package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/cli/config"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/usecase"
	"github.com/secmon-lab/aligner/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// services groups the flags of every external dependency a sync run needs
type services struct {
	google  config.Google
	slack   config.Slack
	history config.History
	archive config.Archive
}

func (x *services) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.google.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.history.Flags()...)
	flags = append(flags, x.archive.Flags()...)
	return flags
}

func (x services) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("google", x.google),
		slog.Any("slack", x.slack),
		slog.Any("history", x.history),
		slog.Any("archive", x.archive),
	)
}

// Configure validates credentials before creating any client, then builds the use cases.
// The returned closer is never nil on success.
func (x *services) Configure(ctx context.Context, settings model.Settings, opts ...usecase.Option) (*usecase.UseCases, func(), error) {
	if err := x.google.Validate(); err != nil {
		return nil, nil, goerr.Wrap(err, "invalid Google configuration")
	}
	if err := x.slack.Validate(); err != nil {
		return nil, nil, goerr.Wrap(err, "invalid Slack configuration")
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*usecase.UseCases, func(), error) {
		closeAll()
		return nil, nil, err
	}

	secrets, closeSecrets, err := config.ConfigureSecrets(ctx, &x.google, &x.slack)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeSecrets)

	directory, err := x.google.Configure(ctx, secrets)
	if err != nil {
		return fail(err)
	}

	channel, err := x.slack.Configure(ctx, secrets, settings)
	if err != nil {
		return fail(err)
	}

	repo, err := x.history.Configure(ctx)
	if err != nil {
		return fail(err)
	}
	if repo != nil {
		opts = append(opts, usecase.WithRepository(repo))
		closers = append(closers, func() { safe.Close(ctx, repo) })
	}

	arc, closeArchive, err := x.archive.Configure(ctx)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeArchive)
	if arc != nil {
		opts = append(opts, usecase.WithArchive(arc))
	}

	return usecase.New(directory, channel, opts...), closeAll, nil
}
