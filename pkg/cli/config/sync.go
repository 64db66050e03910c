package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// SyncFile points at the mapping document and the dry run override
type SyncFile struct {
	path           string
	dryRun         bool
	dryRunOverride bool
}

func (x *SyncFile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the mapping document (.yaml, .yml or .toml)",
			Category:    "Sync",
			Value:       "config.yaml",
			Destination: &x.path,
			Sources:     cli.EnvVars("ALIGNER_CONFIG"),
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Override settings.dry_run of the mapping document",
			Category:    "Sync",
			Destination: &x.dryRun,
			Sources:     cli.EnvVars("ALIGNER_DRY_RUN", "DRY_RUN"),
			Action: func(_ context.Context, _ *cli.Command, _ bool) error {
				x.dryRunOverride = true
				return nil
			},
		},
	}
}

func (x SyncFile) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("path", x.path)}
	if x.dryRunOverride {
		attrs = append(attrs, slog.Bool("dry-run", x.dryRun))
	}
	return slog.GroupValue(attrs...)
}

func (x *SyncFile) Path() string {
	return x.path
}

// Load reads, converts and validates the mapping document, applying the dry run override
func (x *SyncFile) Load() (*model.SyncConfig, error) {
	cfg, err := LoadSyncConfig(x.path)
	if err != nil {
		return nil, err
	}
	if x.dryRunOverride {
		cfg.Settings.DryRun = x.dryRun
	}
	return cfg, nil
}

// SyncDocument is the on-disk form of the mapping document
type SyncDocument struct {
	Settings SettingsDocument  `yaml:"settings" toml:"settings"`
	Mappings []MappingDocument `yaml:"mappings" toml:"mappings"`
}

// SettingsDocument holds global settings. Omitted values fall back to defaults.
type SettingsDocument struct {
	DryRun           bool   `yaml:"dry_run" toml:"dry_run"`
	MaxChangesPerRun *int   `yaml:"max_changes_per_run" toml:"max_changes_per_run"`
	NotifyChannelID  string `yaml:"notify_channel_id" toml:"notify_channel_id"`
	InviteChunkSize  *int   `yaml:"invite_chunk_size" toml:"invite_chunk_size"`
	InviteInterval   string `yaml:"invite_interval" toml:"invite_interval"`
}

// MappingDocument is one group to channel pairing
type MappingDocument struct {
	Name                string   `yaml:"name" toml:"name"`
	GoogleGroup         string   `yaml:"google_group" toml:"google_group"`
	SlackChannel        string   `yaml:"slack_channel" toml:"slack_channel"`
	ProtectedSlackUsers []string `yaml:"protected_slack_users" toml:"protected_slack_users"`
	Enabled             *bool    `yaml:"enabled" toml:"enabled"`
	AddOnly             bool     `yaml:"add_only" toml:"add_only"`
}

// LoadSyncConfig loads the mapping document. The format is chosen by file extension.
func LoadSyncConfig(path string) (*model.SyncConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "failed to read config file", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var doc SyncDocument
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, goerr.Wrap(err, "failed to parse YAML config", goerr.V(ConfigPathKey, path))
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
		}
	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "unknown config file extension", goerr.V(ConfigPathKey, path), goerr.V("extension", ext))
	}

	cfg, err := doc.ToDomain()
	if err != nil {
		return nil, goerr.Wrap(err, "invalid config", goerr.V(ConfigPathKey, path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return cfg, nil
}

// ToDomain converts the document to domain SyncConfig
func (d *SyncDocument) ToDomain() (*model.SyncConfig, error) {
	settings := model.DefaultSettings()
	settings.DryRun = d.Settings.DryRun
	settings.NotifyChannelID = d.Settings.NotifyChannelID
	if d.Settings.MaxChangesPerRun != nil {
		settings.MaxChangesPerRun = *d.Settings.MaxChangesPerRun
	}
	if d.Settings.InviteChunkSize != nil {
		settings.InviteChunkSize = *d.Settings.InviteChunkSize
	}
	if d.Settings.InviteInterval != "" {
		interval, err := time.ParseDuration(d.Settings.InviteInterval)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "invalid invite_interval",
				goerr.V("value", d.Settings.InviteInterval),
				goerr.V("cause", err.Error()))
		}
		settings.InviteInterval = interval
	}

	mappings := make([]model.Mapping, len(d.Mappings))
	for i, m := range d.Mappings {
		protected := make([]model.SlackUserID, len(m.ProtectedSlackUsers))
		for j, id := range m.ProtectedSlackUsers {
			protected[j] = model.SlackUserID(id)
		}

		enabled := true
		if m.Enabled != nil {
			enabled = *m.Enabled
		}

		mappings[i] = model.Mapping{
			Name:                m.Name,
			GoogleGroup:         m.GoogleGroup,
			SlackChannel:        m.SlackChannel,
			ProtectedSlackUsers: protected,
			Enabled:             enabled,
			AddOnly:             m.AddOnly,
		}
	}

	return &model.SyncConfig{
		Settings: settings,
		Mappings: mappings,
	}, nil
}
