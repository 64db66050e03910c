package model

// SlackUserID is the opaque handle of a Slack workspace member.
// A handle is not guaranteed to resolve to an email.
type SlackUserID string

// String returns the raw handle
func (x SlackUserID) String() string {
	return string(x)
}

// ChannelMember is a workspace roster entry with the attributes used by the removal safety filters
type ChannelMember struct {
	ID           SlackUserID
	Email        Identity // empty for bots and accounts without a profile email
	IsAdmin      bool
	IsOwner      bool
	IsBot        bool
	IsAppUser    bool
	IsRestricted bool // multi-channel guest
}

// IsPrivileged reports admin or owner accounts
func (x *ChannelMember) IsPrivileged() bool {
	return x.IsAdmin || x.IsOwner
}

// IsAutomated reports bot and app user accounts
func (x *ChannelMember) IsAutomated() bool {
	return x.IsBot || x.IsAppUser
}

// IdentityCache indexes a roster snapshot by handle and by email.
// It is built once per run and never modified; lookups return copies.
type IdentityCache struct {
	byID    map[SlackUserID]*ChannelMember
	byEmail map[Identity]*ChannelMember
}

// NewIdentityCache builds both indexes from members. Members without email are reachable by handle only.
// When two members share an email, the later one wins the email index.
func NewIdentityCache(members []*ChannelMember) *IdentityCache {
	c := &IdentityCache{
		byID:    make(map[SlackUserID]*ChannelMember, len(members)),
		byEmail: make(map[Identity]*ChannelMember, len(members)),
	}

	for _, m := range members {
		if m == nil || m.ID == "" {
			continue
		}
		memberCopy := *m
		c.byID[m.ID] = &memberCopy
		if !memberCopy.Email.IsEmpty() {
			c.byEmail[memberCopy.Email] = &memberCopy
		}
	}

	return c
}

// ByID looks up a member by handle
func (c *IdentityCache) ByID(id SlackUserID) (ChannelMember, bool) {
	if c == nil {
		return ChannelMember{}, false
	}
	m, ok := c.byID[id]
	if !ok {
		return ChannelMember{}, false
	}
	return *m, true
}

// ByEmail looks up a member by identity
func (c *IdentityCache) ByEmail(email Identity) (ChannelMember, bool) {
	if c == nil {
		return ChannelMember{}, false
	}
	m, ok := c.byEmail[email]
	if !ok {
		return ChannelMember{}, false
	}
	return *m, true
}

// Len returns the number of members indexed by handle
func (c *IdentityCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}
