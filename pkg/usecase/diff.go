package usecase

import "github.com/secmon-lab/aligner/pkg/domain/model"

// Diff is the membership difference between a group and a channel, in identity space
type Diff struct {
	ToAdd           model.IdentitySet
	CandidateRemove model.IdentitySet

	handles map[model.Identity]model.SlackUserID
}

// ComputeDiff resolves channel handles through the roster snapshot and diffs them against source.
// Handles with no cached email (bots, deactivated or email-less guests) are never candidates.
func ComputeDiff(source model.IdentitySet, channelHandles []model.SlackUserID, cache *model.IdentityCache) *Diff {
	handles := make(map[model.Identity]model.SlackUserID, len(channelHandles))
	channel := make(model.IdentitySet, len(channelHandles))

	for _, h := range channelHandles {
		member, ok := cache.ByID(h)
		if !ok || member.Email.IsEmpty() {
			continue
		}
		handles[member.Email] = h
		channel.Add(member.Email)
	}

	return &Diff{
		ToAdd:           source.Difference(channel),
		CandidateRemove: channel.Difference(source),
		handles:         handles,
	}
}

// Handle returns the channel handle an identity was resolved from
func (d *Diff) Handle(id model.Identity) (model.SlackUserID, bool) {
	h, ok := d.handles[id]
	return h, ok
}

// TotalChanges counts changes checked against the ceiling. Add-only mappings never remove.
func (d *Diff) TotalChanges(addOnly bool) int {
	if addOnly {
		return d.ToAdd.Len()
	}
	return d.ToAdd.Len() + d.CandidateRemove.Len()
}
