package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultMaxChangesPerRun = 50
	DefaultInviteChunkSize  = 30
	DefaultInviteInterval   = time.Second

	// MaxInviteChunkSize is the largest user list conversations.invite accepts
	MaxInviteChunkSize = 1000
)

// Mapping binds one Google group to one Slack channel
type Mapping struct {
	Name                string
	GoogleGroup         string
	SlackChannel        string
	ProtectedSlackUsers []SlackUserID
	Enabled             bool
	// AddOnly disables removal of channel members missing from the group
	AddOnly bool
}

// IsProtected reports whether id is exempt from removal on this mapping
func (m *Mapping) IsProtected(id SlackUserID) bool {
	for _, p := range m.ProtectedSlackUsers {
		if p == id {
			return true
		}
	}
	return false
}

// Validate checks required fields of the mapping
func (m *Mapping) Validate() error {
	if m.Name == "" {
		return goerr.New("mapping name is required")
	}
	if m.GoogleGroup == "" {
		return goerr.New("google_group is required", goerr.V("mapping", m.Name))
	}
	if m.SlackChannel == "" {
		return goerr.New("slack_channel is required", goerr.V("mapping", m.Name))
	}
	return nil
}

// Settings holds run wide behavior
type Settings struct {
	DryRun           bool
	MaxChangesPerRun int
	NotifyChannelID  string
	InviteChunkSize  int
	InviteInterval   time.Duration
}

// DefaultSettings returns settings used when the config document omits them
func DefaultSettings() Settings {
	return Settings{
		MaxChangesPerRun: DefaultMaxChangesPerRun,
		InviteChunkSize:  DefaultInviteChunkSize,
		InviteInterval:   DefaultInviteInterval,
	}
}

// Validate checks numeric bounds of the settings
func (s *Settings) Validate() error {
	if s.MaxChangesPerRun < 0 {
		return goerr.New("max_changes_per_run must not be negative", goerr.V("value", s.MaxChangesPerRun))
	}
	if s.InviteChunkSize < 1 || s.InviteChunkSize > MaxInviteChunkSize {
		return goerr.New("invite_chunk_size must be between 1 and 1000", goerr.V("value", s.InviteChunkSize))
	}
	if s.InviteInterval < 0 {
		return goerr.New("invite_interval must not be negative", goerr.V("value", s.InviteInterval))
	}
	return nil
}

// SyncConfig is the full description of a sync run
type SyncConfig struct {
	Settings Settings
	Mappings []Mapping
}

// EnabledMappings returns mappings in declaration order, skipping disabled ones
func (c *SyncConfig) EnabledMappings() []Mapping {
	var enabled []Mapping
	for _, m := range c.Mappings {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	return enabled
}

// Validate checks settings and every mapping, and rejects duplicate mapping names
func (c *SyncConfig) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return goerr.Wrap(err, "invalid settings")
	}

	names := make(map[string]bool)
	for _, m := range c.Mappings {
		if err := m.Validate(); err != nil {
			return goerr.Wrap(err, "invalid mapping")
		}
		if names[m.Name] {
			return goerr.New("duplicate mapping name", goerr.V("name", m.Name))
		}
		names[m.Name] = true
	}

	return nil
}
