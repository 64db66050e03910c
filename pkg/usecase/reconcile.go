package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/domain/types"
	"github.com/secmon-lab/aligner/pkg/service/google"
	slacksvc "github.com/secmon-lab/aligner/pkg/service/slack"
	"github.com/secmon-lab/aligner/pkg/utils/errutil"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
)

// ReconcileUseCase aligns one Slack channel with one Google group
type ReconcileUseCase struct {
	directory google.Service
	channel   slacksvc.Service
}

// NewReconcileUseCase creates a new ReconcileUseCase instance
func NewReconcileUseCase(directory google.Service, channel slacksvc.Service) *ReconcileUseCase {
	return &ReconcileUseCase{
		directory: directory,
		channel:   channel,
	}
}

// Reconcile processes a mapping start to finish and returns its stats.
// Failures never escape: they end the mapping as Failed with whatever was done so far.
// Safety decisions read only the given roster snapshot.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, cache *model.IdentityCache, mapping model.Mapping, settings model.Settings) model.SyncStats {
	logger := logging.From(ctx).With(MappingKey, mapping.Name)
	ctx = logging.With(ctx, logger)

	logger.Info("Processing mapping",
		GroupKey, mapping.GoogleGroup,
		ChannelKey, mapping.SlackChannel,
		"dry_run", settings.DryRun,
		"add_only", mapping.AddOnly,
	)

	stats := model.NewSyncStats(mapping.Name)
	if err := uc.reconcile(ctx, cache, mapping, settings, &stats); err != nil {
		_ = errutil.Handle(ctx, err, "Mapping failed")
		stats.Status = types.SyncStatusFailed
		stats.Errors = append(stats.Errors, err.Error())
	}

	logger.Info("Mapping processed",
		"status", stats.Status,
		"added", stats.Added,
		"removed", stats.Removed,
		"skipped", stats.Skipped,
		"missing", len(stats.MissingAccounts),
	)

	return stats
}

func (uc *ReconcileUseCase) reconcile(ctx context.Context, cache *model.IdentityCache, mapping model.Mapping, settings model.Settings, stats *model.SyncStats) error {
	logger := logging.From(ctx)

	groupMembers, err := uc.directory.FetchMembers(ctx, mapping.GoogleGroup)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch Google group members", goerr.V(GroupKey, mapping.GoogleGroup))
	}

	handles, err := uc.channel.ChannelMembers(ctx, mapping.SlackChannel)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch Slack channel members", goerr.V(ChannelKey, mapping.SlackChannel))
	}

	diff := ComputeDiff(groupMembers, handles, cache)
	logger.Info("Analysis",
		"group_members", groupMembers.Len(),
		"channel_members", len(handles),
		"to_add", diff.ToAdd.Len(),
		"to_remove", diff.CandidateRemove.Len(),
	)

	total := diff.TotalChanges(mapping.AddOnly)
	if total > settings.MaxChangesPerRun {
		msg := fmt.Sprintf("Aborting: %d changes exceeds limit of %d", total, settings.MaxChangesPerRun)
		logger.Error(msg)
		stats.Errors = append(stats.Errors, msg)
		stats.Status = types.SyncStatusAborted
		return nil
	}

	if diff.ToAdd.Len() > 0 {
		added, missing, err := uc.channel.AddMembers(ctx, mapping.SlackChannel, diff.ToAdd.Sorted(), settings.DryRun)
		stats.Added = added
		stats.MissingAccounts = missing
		if err != nil {
			return goerr.Wrap(err, "failed to add channel members", goerr.V(ChannelKey, mapping.SlackChannel))
		}
	}

	if mapping.AddOnly {
		if n := diff.CandidateRemove.Len(); n > 0 {
			logger.Info("Skipping removal of extra members (add-only)", "count", n)
		}
		return nil
	}

	for _, email := range diff.CandidateRemove.Sorted() {
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "removal interrupted", goerr.V(ChannelKey, mapping.SlackChannel))
		}

		handle, _ := diff.Handle(email)
		member, _ := cache.ByID(handle)

		if reason := skipReason(mapping, handle, member); reason != "" {
			logger.Info("Skip removal", "email", email, "reason", reason)
			stats.Skipped++
			continue
		}

		if !uc.channel.RemoveMember(ctx, mapping.SlackChannel, handle, settings.DryRun) {
			stats.Errors = append(stats.Errors, fmt.Sprintf("Failed to kick %s", email))
			continue
		}
		stats.Removed++
	}

	return nil
}

// skipReason applies the removal safety filters in order and names the first that matches
func skipReason(mapping model.Mapping, handle model.SlackUserID, member model.ChannelMember) string {
	switch {
	case mapping.IsProtected(handle):
		return "protected"
	case member.IsPrivileged():
		return "admin or owner"
	case member.IsAutomated():
		return "bot"
	default:
		return ""
	}
}
