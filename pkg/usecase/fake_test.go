package usecase_test

import (
	"context"
	"slices"
	"sync"

	"github.com/secmon-lab/aligner/pkg/domain/model"
	goslack "github.com/slack-go/slack"
)

type fakeDirectory struct {
	groups map[string]model.IdentitySet
	errs   map[string]error
	calls  []string
}

func (f *fakeDirectory) FetchMembers(ctx context.Context, groupKey string) (model.IdentitySet, error) {
	f.calls = append(f.calls, groupKey)
	if err, ok := f.errs[groupKey]; ok {
		return nil, err
	}
	members := model.NewIdentitySet()
	for id := range f.groups[groupKey] {
		members.Add(id)
	}
	return members, nil
}

type inviteCall struct {
	channel string
	ids     []model.SlackUserID
	dryRun  bool
}

type kickCall struct {
	channel string
	id      model.SlackUserID
	dryRun  bool
}

type postCall struct {
	channel string
	blocks  []goslack.Block
	text    string
}

// fakeChannel keeps channel membership in memory and applies non dry-run mutations to it
type fakeChannel struct {
	mu sync.Mutex

	roster     []*model.ChannelMember
	channels   map[string][]model.SlackUserID
	rosterErr  error
	membersErr map[string]error
	addErr     error
	kickFail   map[model.SlackUserID]bool
	postErr    error

	cache       *model.IdentityCache
	rosterCalls int
	invites     []inviteCall
	kicks       []kickCall
	posts       []postCall
}

func (f *fakeChannel) LoadRoster(ctx context.Context) (*model.IdentityCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rosterCalls++
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	f.cache = model.NewIdentityCache(f.roster)
	return f.cache, nil
}

func (f *fakeChannel) ChannelMembers(ctx context.Context, channelID string) ([]model.SlackUserID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.membersErr[channelID]; ok {
		return nil, err
	}
	return slices.Clone(f.channels[channelID]), nil
}

func (f *fakeChannel) AddMembers(ctx context.Context, channelID string, identities []model.Identity, dryRun bool) (int, []model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []model.SlackUserID
	var missing []model.Identity
	for _, id := range identities {
		member, ok := f.cache.ByEmail(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		ids = append(ids, member.ID)
	}

	if len(ids) > 0 {
		f.invites = append(f.invites, inviteCall{channel: channelID, ids: ids, dryRun: dryRun})
		if !dryRun {
			if f.channels == nil {
				f.channels = map[string][]model.SlackUserID{}
			}
			f.channels[channelID] = append(f.channels[channelID], ids...)
		}
	}

	return len(ids), missing, f.addErr
}

func (f *fakeChannel) RemoveMember(ctx context.Context, channelID string, id model.SlackUserID, dryRun bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.kicks = append(f.kicks, kickCall{channel: channelID, id: id, dryRun: dryRun})
	if f.kickFail[id] {
		return false
	}
	if !dryRun {
		f.channels[channelID] = slices.DeleteFunc(f.channels[channelID], func(h model.SlackUserID) bool {
			return h == id
		})
	}
	return true
}

func (f *fakeChannel) PostMessage(ctx context.Context, channelID string, blocks []goslack.Block, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.postErr != nil {
		return f.postErr
	}
	f.posts = append(f.posts, postCall{channel: channelID, blocks: blocks, text: text})
	return nil
}

// mutatingCalls counts invite and kick calls that were not dry runs
func (f *fakeChannel) mutatingCalls() int {
	n := 0
	for _, c := range f.invites {
		if !c.dryRun {
			n++
		}
	}
	for _, c := range f.kicks {
		if !c.dryRun {
			n++
		}
	}
	return n
}

type fakeArchive struct {
	saved []*model.SyncRun
	err   error
}

func (f *fakeArchive) Save(ctx context.Context, run *model.SyncRun) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, run)
	return nil
}

func user(id, email string) *model.ChannelMember {
	return &model.ChannelMember{ID: model.SlackUserID(id), Email: model.NewIdentity(email)}
}
