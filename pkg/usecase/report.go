package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/domain/types"
	slacksvc "github.com/secmon-lab/aligner/pkg/service/slack"
	"github.com/secmon-lab/aligner/pkg/utils/errutil"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	goslack "github.com/slack-go/slack"
)

// ReportTitle is the header and fallback text of the sync report message
const ReportTitle = "🔄 Membership Sync Report"

// ReportUseCase publishes per-run sync summaries
type ReportUseCase struct {
	channel slacksvc.Service
}

// NewReportUseCase creates a new ReportUseCase instance
func NewReportUseCase(channel slacksvc.Service) *ReportUseCase {
	return &ReportUseCase{channel: channel}
}

// Publish posts one summary message covering all mappings. Nothing is sent when
// no notify channel is configured or the run is a dry run. Post failures are logged only.
func (uc *ReportUseCase) Publish(ctx context.Context, stats []model.SyncStats, notifyChannelID string, dryRun bool) {
	if notifyChannelID == "" || dryRun {
		return
	}

	blocks := buildReportBlocks(stats)
	if err := uc.channel.PostMessage(ctx, notifyChannelID, blocks, ReportTitle); err != nil {
		_ = errutil.Handle(ctx, err, "Failed to post sync report")
		return
	}

	logging.From(ctx).Info("Sync report posted", ChannelKey, notifyChannelID, "mappings", len(stats))
}

func buildReportBlocks(stats []model.SyncStats) []goslack.Block {
	blocks := []goslack.Block{
		goslack.NewHeaderBlock(
			goslack.NewTextBlockObject(goslack.PlainTextType, ReportTitle, true, false),
		),
	}

	for _, s := range stats {
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, formatMappingSummary(s), false, false),
			nil, nil,
		))
	}

	return blocks
}

func formatMappingSummary(s model.SyncStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", s.MappingName)
	fmt.Fprintf(&b, "%s Added: %d | Removed: %d | Skipped: %d", s.Status.Emoji(), s.Added, s.Removed, s.Skipped)

	if len(s.MissingAccounts) > 0 {
		fmt.Fprintf(&b, "\n❓ Missing Slack Accts: %d", len(s.MissingAccounts))
	}
	if len(s.Errors) > 0 {
		fmt.Fprintf(&b, "\n⛔ Errors: %s", strings.Join(s.Errors, "; "))
	}

	return b.String()
}

// PrintSummary writes a human readable summary of a run to w
func PrintSummary(w io.Writer, run *model.SyncRun) {
	bold := color.New(color.Bold)

	title := "Sync summary"
	if run.DryRun {
		title += " (dry run)"
	}
	if run.StartedAt.IsZero() {
		fmt.Fprintf(w, "%s %s\n", bold.Sprint(title), run.ID)
	} else {
		fmt.Fprintf(w, "%s %s at %s\n", bold.Sprint(title), run.ID, run.StartedAt.Format(time.RFC3339))
	}

	for _, s := range run.Stats {
		fmt.Fprintf(w, "  %-8s %s  added=%d removed=%d skipped=%d\n",
			statusColor(s.Status).Sprint(s.Status), bold.Sprint(s.MappingName),
			s.Added, s.Removed, s.Skipped)

		if len(s.MissingAccounts) > 0 {
			missing := make([]string, len(s.MissingAccounts))
			for i, id := range s.MissingAccounts {
				missing[i] = id.String()
			}
			fmt.Fprintf(w, "           missing Slack accounts: %s\n", strings.Join(missing, ", "))
		}
		for _, e := range s.Errors {
			fmt.Fprintf(w, "           %s %s\n", color.RedString("error:"), e)
		}
	}
}

func statusColor(status types.SyncStatus) *color.Color {
	switch status {
	case types.SyncStatusSuccess:
		return color.New(color.FgGreen)
	case types.SyncStatusAborted:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
