package slack

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/slack-go/slack"
)

const (
	// DefaultInviteChunkSize is the number of users sent per conversations.invite call.
	// The API accepts up to 1000; smaller chunks keep a failed call cheap.
	DefaultInviteChunkSize = model.DefaultInviteChunkSize
	// DefaultInviteInterval is the pause between invite calls
	DefaultInviteInterval = model.DefaultInviteInterval

	pageLimit = 200

	errAlreadyInChannel = "already_in_channel"
)

// ErrRosterNotLoaded is returned by AddMembers before LoadRoster succeeded
var ErrRosterNotLoaded = errors.New("slack roster is not loaded")

// client implements Service interface
type client struct {
	api       *slack.Client
	chunkSize int
	pacer     Pacer
	roster    *model.IdentityCache
}

type config struct {
	apiURL    string
	chunkSize int
	pacer     Pacer
}

// Option is a functional option for client configuration
type Option func(*config)

// WithAPIURL points the client at another Slack Web API base URL. The URL must end with "/".
func WithAPIURL(url string) Option {
	return func(c *config) {
		c.apiURL = url
	}
}

// WithInviteChunkSize sets how many users are invited per call
func WithInviteChunkSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithPacer replaces the pause policy applied after each invite call
func WithPacer(p Pacer) Option {
	return func(c *config) {
		c.pacer = p
	}
}

// WithInviteInterval pauses for interval after every invite call. Zero disables pacing.
func WithInviteInterval(interval time.Duration) Option {
	return func(c *config) {
		c.pacer = NewIntervalPacer(interval)
	}
}

// NewIntervalPacer returns a pacer that pauses a full interval on every Wait
func NewIntervalPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return NopPacer{}
	}
	return &IntervalPacer{interval: interval}
}

// IntervalPacer sleeps a fixed interval per call, returning early when ctx is done
type IntervalPacer struct {
	interval time.Duration
}

func (p *IntervalPacer) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NopPacer never waits
type NopPacer struct{}

// Wait returns immediately unless ctx is already done
func (NopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}

// New creates a new Slack service with the provided bot token
func New(token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	cfg := &config{
		chunkSize: DefaultInviteChunkSize,
		pacer:     NewIntervalPacer(DefaultInviteInterval),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var apiOpts []slack.Option
	if cfg.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &client{
		api:       slack.New(token, apiOpts...),
		chunkSize: cfg.chunkSize,
		pacer:     cfg.pacer,
	}, nil
}

// LoadRoster retrieves all non-deleted users in the workspace
func (c *client) LoadRoster(ctx context.Context) (*model.IdentityCache, error) {
	logger := logging.From(ctx)
	logger.Info("Populating Slack user cache")

	var members []*model.ChannelMember
	var err error
	page := c.api.GetUsersPaginated(slack.GetUsersOptionLimit(pageLimit))
	for {
		page, err = page.Next(ctx)
		if page.Done(err) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(page.Failure(err), "failed to list Slack users")
		}

		for _, u := range page.Users {
			if u.Deleted {
				continue
			}
			members = append(members, &model.ChannelMember{
				ID:           model.SlackUserID(u.ID),
				Email:        model.NewIdentity(u.Profile.Email),
				IsAdmin:      u.IsAdmin,
				IsOwner:      u.IsOwner,
				IsBot:        u.IsBot,
				IsAppUser:    u.IsAppUser,
				IsRestricted: u.IsRestricted,
			})
		}
	}

	c.roster = model.NewIdentityCache(members)
	logger.Info("Slack user cache populated", "count", c.roster.Len())

	return c.roster, nil
}

// ChannelMembers retrieves member handles of a channel
func (c *client) ChannelMembers(ctx context.Context, channelID string) ([]model.SlackUserID, error) {
	var members []model.SlackUserID
	var cursor string

	for {
		ids, nextCursor, err := c.api.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     pageLimit,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get channel members", goerr.V("channel_id", channelID))
		}

		for _, id := range ids {
			members = append(members, model.SlackUserID(id))
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return members, nil
}

// AddMembers invites identities to a channel in chunks
func (c *client) AddMembers(ctx context.Context, channelID string, identities []model.Identity, dryRun bool) (int, []model.Identity, error) {
	if c.roster == nil {
		return 0, nil, goerr.Wrap(ErrRosterNotLoaded, "cannot resolve identities", goerr.V("channel_id", channelID))
	}

	logger := logging.From(ctx)

	var handles []string
	var missing []model.Identity
	for _, id := range identities {
		member, ok := c.roster.ByEmail(id)
		if !ok {
			logger.Warn("No Slack account found", "email", id)
			missing = append(missing, id)
			continue
		}
		handles = append(handles, member.ID.String())
	}

	added := 0
	for _, chunk := range chunkHandles(handles, c.chunkSize) {
		if dryRun {
			logger.Info("[DRY RUN] Would invite", "channel_id", channelID, "users", chunk)
			added += len(chunk)
			continue
		}

		_, err := c.api.InviteUsersToConversationContext(ctx, channelID, chunk...)
		switch {
		case err == nil:
			added += len(chunk)
			logger.Info("Invited users", "channel_id", channelID, "count", len(chunk))
		case isAlreadyInChannel(err):
			logger.Debug("Users already in channel", "channel_id", channelID, "users", chunk)
		default:
			logger.Error("Failed to invite chunk", "channel_id", channelID, "users", chunk, "error", err.Error())
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return added, missing, goerr.Wrap(err, "invite pacing interrupted", goerr.V("channel_id", channelID))
		}
	}

	return added, missing, nil
}

// RemoveMember kicks a single user from a channel
func (c *client) RemoveMember(ctx context.Context, channelID string, id model.SlackUserID, dryRun bool) bool {
	logger := logging.From(ctx)

	if dryRun {
		logger.Info("[DRY RUN] Would kick user", "channel_id", channelID, "user_id", id)
		return true
	}

	if err := c.api.KickUserFromConversationContext(ctx, channelID, id.String()); err != nil {
		logger.Error("Failed to kick user", "channel_id", channelID, "user_id", id, "error", err.Error())
		return false
	}

	logger.Info("Kicked user", "channel_id", channelID, "user_id", id)
	return true
}

// PostMessage posts a Block Kit message to a channel
func (c *client) PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post message", goerr.V("channel_id", channelID))
	}
	return nil
}

func isAlreadyInChannel(err error) bool {
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return slackErr.Err == errAlreadyInChannel
	}
	return err.Error() == errAlreadyInChannel
}

func chunkHandles(handles []string, size int) [][]string {
	if size <= 0 {
		size = DefaultInviteChunkSize
	}
	var chunks [][]string
	for i := 0; i < len(handles); i += size {
		end := i + size
		if end > len(handles) {
			end = len(handles)
		}
		chunks = append(chunks, handles[i:end])
	}
	return chunks
}
