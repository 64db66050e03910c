package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/cli/config"
	"github.com/secmon-lab/aligner/pkg/usecase"
	"github.com/secmon-lab/aligner/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdHistory() *cli.Command {
	var historyCfg config.History
	var limit int
	var format string

	flags := historyCfg.Flags()
	flags = append(flags,
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Number of recent runs to show",
			Value:       10,
			Destination: &limit,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Output format (text or json)",
			Value:       "text",
			Destination: &format,
		},
	)

	return &cli.Command{
		Name:  "history",
		Usage: "Show recent sync runs from the history backend",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if format != "text" && format != "json" {
				return goerr.New("invalid output format", goerr.V("format", format))
			}

			repo, err := historyCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if repo == nil {
				return goerr.New("history backend is not configured, set --history-backend")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(nil, nil, usecase.WithRepository(repo))
			runs, err := uc.Sync.History(ctx, limit)
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(runs); err != nil {
					return goerr.Wrap(err, "failed to encode sync runs")
				}
				return nil
			}

			for _, run := range runs {
				usecase.PrintSummary(os.Stdout, run)
			}
			return nil
		},
	}
}
