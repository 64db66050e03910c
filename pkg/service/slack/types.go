package slack

import (
	"context"

	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Service is the Channel Store: Slack channel membership and workspace roster
type Service interface {
	// LoadRoster pages through every workspace user, skipping deactivated accounts, and returns the
	// identity cache for this run. The cache is also kept for AddMembers lookups.
	LoadRoster(ctx context.Context) (*model.IdentityCache, error)

	// ChannelMembers returns the raw handles of a channel's members, not yet resolved to email
	ChannelMembers(ctx context.Context, channelID string) ([]model.SlackUserID, error)

	// AddMembers resolves identities through the roster and invites them in chunks.
	// Identities without a Slack account are returned as missing instead of failing.
	AddMembers(ctx context.Context, channelID string, identities []model.Identity, dryRun bool) (int, []model.Identity, error)

	// RemoveMember kicks one member. It returns false when the kick failed.
	RemoveMember(ctx context.Context, channelID string, id model.SlackUserID, dryRun bool) bool

	// PostMessage posts a Block Kit message. The text parameter is used as a fallback for notifications.
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) error
}

// Pacer throttles mutating API calls
type Pacer interface {
	Wait(ctx context.Context) error
}
