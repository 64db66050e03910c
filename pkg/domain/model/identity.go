package model

import (
	"sort"
	"strings"
)

// Identity is a normalized (trimmed, lowercased) email address. It is the only key used to match a
// directory member to a channel member.
type Identity string

// NewIdentity normalizes an email address into an Identity
func NewIdentity(email string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(email)))
}

// String returns the email address
func (x Identity) String() string {
	return string(x)
}

// IsEmpty reports whether the identity carries no email
func (x Identity) IsEmpty() bool {
	return x == ""
}

// IdentitySet is an unordered set of identities
type IdentitySet map[Identity]struct{}

// NewIdentitySet builds a set from raw emails, normalizing each one. Empty emails are dropped.
func NewIdentitySet(emails ...string) IdentitySet {
	set := make(IdentitySet, len(emails))
	for _, email := range emails {
		set.Add(NewIdentity(email))
	}
	return set
}

// Add inserts id. Empty identities are ignored.
func (s IdentitySet) Add(id Identity) {
	if id.IsEmpty() {
		return
	}
	s[id] = struct{}{}
}

// Has reports whether id is in the set
func (s IdentitySet) Has(id Identity) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of identities
func (s IdentitySet) Len() int {
	return len(s)
}

// Difference returns the identities in s that are not in other
func (s IdentitySet) Difference(other IdentitySet) IdentitySet {
	diff := make(IdentitySet)
	for id := range s {
		if !other.Has(id) {
			diff[id] = struct{}{}
		}
	}
	return diff
}

// Sorted returns the identities in lexical order, for logs and reports only
func (s IdentitySet) Sorted() []Identity {
	ids := make([]Identity, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
